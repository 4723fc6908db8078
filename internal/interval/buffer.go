// Package interval partitions an unbounded packet stream into contiguous,
// time-aligned intervals and signals boundary crossings, grounded on
// original_source/crates/weex-archive/src/buffer.rs with the boundary
// semantics resolved per SPEC_FULL.md §1 item 1: the packet that crosses an
// interval boundary seeds the *next* interval rather than being folded into
// the one it closes.
package interval

import (
	"errors"

	"github.com/ask-23/weex/internal/packet"
)

// ErrBufferOverflow is returned by Add when the safety cap is exceeded —
// the buffer never grows unbounded even under clock skew or burst ingest.
var ErrBufferOverflow = errors.New("interval: buffer overflow")

// Buffer partitions packets into closed, aligned windows of Length seconds.
type Buffer struct {
	length     int64
	maxPackets int

	packets    []packet.WeatherPacket
	pending    []packet.WeatherPacket
	currentEnd *int64
}

// New constructs a Buffer for intervals of length seconds. Per spec §4.2,
// the safety cap is max(2*length, 100).
func New(length int64) *Buffer {
	max := int(length * 2)
	if max < 100 {
		max = 100
	}
	return &Buffer{length: length, maxPackets: max}
}

// CalculateIntervalEnd computes the aligned upper bound of the interval
// containing timestamp t: end = ((t/length)+1)*length using truncating
// integer division. A packet belongs to the interval ending at end iff
// t <= end.
func (b *Buffer) CalculateIntervalEnd(t int64) int64 {
	return (t/b.length + 1) * b.length
}

// Len reports the number of packets currently held across both the active
// slice and the pending slice (the boundary-crossing packet staged to seed
// the next interval).
func (b *Buffer) Len() int { return len(b.packets) + len(b.pending) }

// IntervalEnd reports the end of the currently open interval, if any.
func (b *Buffer) IntervalEnd() (int64, bool) {
	if b.currentEnd == nil {
		return 0, false
	}
	return *b.currentEnd, true
}

// Add appends a packet to the buffer. It returns the end timestamp of a
// just-closed interval when pkt.DateTime crosses the current interval's
// upper bound; the crossing packet itself is held aside to seed the
// newly-opened interval and is never included in the Drain() call that
// flushes the interval it closed.
func (b *Buffer) Add(pkt packet.WeatherPacket) (boundary int64, crossed bool, err error) {
	if b.Len() >= b.maxPackets {
		return 0, false, ErrBufferOverflow
	}

	pkt = pkt.Clone()
	t := pkt.DateTime

	if b.currentEnd == nil {
		end := b.CalculateIntervalEnd(t)
		b.currentEnd = &end
		b.packets = append(b.packets, pkt)
		return 0, false, nil
	}

	if t <= *b.currentEnd {
		b.packets = append(b.packets, pkt)
		return 0, false, nil
	}

	closedEnd := *b.currentEnd
	newEnd := b.CalculateIntervalEnd(t)
	b.currentEnd = &newEnd
	b.pending = append(b.pending, pkt)
	return closedEnd, true, nil
}

// Drain removes and returns the packets belonging to the interval that just
// closed. If a boundary-crossing packet is already staged (the common case,
// called immediately after Add reports crossed=true), it becomes the seed
// of the new active interval and currentEnd is left at the value Add
// already derived from it. Otherwise (a manual or forced drain with no
// pending crossing) the interval end resets to unset, matching spec §4.2.
func (b *Buffer) Drain() []packet.WeatherPacket {
	out := b.packets
	if len(b.pending) > 0 {
		b.packets = b.pending
		b.pending = nil
	} else {
		b.packets = nil
		b.currentEnd = nil
	}
	return out
}

// IsEmpty reports whether the buffer holds no packets at all.
func (b *Buffer) IsEmpty() bool { return b.Len() == 0 }
