// Package archive wires the interval buffer (internal/interval) into the
// aggregation engine (internal/aggregate) and materializes ArchiveRecords
// at interval boundaries, grounded on
// original_source/crates/weex-archive/src/aggregator.rs.
package archive

import (
	"context"
	"fmt"

	"github.com/ask-23/weex/internal/aggregate"
	"github.com/ask-23/weex/internal/interval"
	"github.com/ask-23/weex/internal/packet"
	"github.com/ask-23/weex/internal/sinks"
)

// Logger is the narrow logging surface the aggregator needs, matching the
// shape telegraf threads into its plugins (Debugf/Infof/Warnf/Errorf)
// rather than depending on a concrete logging library.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything; used when callers don't supply one.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Now abstracts wall-clock time so ForceFlush is testable without sleeping.
type Now func() int64

// Aggregator accumulates packets into fixed-length intervals and emits one
// ArchiveRecord per closed interval to its configured sink.
type Aggregator struct {
	interval   int32
	unitSystem int
	buffer     *interval.Buffer
	sink       sinks.ArchiveSink
	now        Now
	log        Logger

	lastEmittedEnd int64
}

// New constructs an Aggregator. interval and unitSystem are fixed for the
// aggregator's lifetime (spec §4.3 construction parameters).
func New(intervalSeconds int32, unitSystem int, sink sinks.ArchiveSink, now Now, log Logger) *Aggregator {
	if log == nil {
		log = nopLogger{}
	}
	return &Aggregator{
		interval:   intervalSeconds,
		unitSystem: unitSystem,
		buffer:     interval.New(int64(intervalSeconds)),
		sink:       sink,
		now:        now,
		log:        log,
	}
}

// AddPacket feeds one canonical packet into the interval buffer, flushing
// the interval it closes (if any) before returning.
func (a *Aggregator) AddPacket(ctx context.Context, pkt packet.WeatherPacket) error {
	boundary, crossed, err := a.buffer.Add(pkt)
	if err != nil {
		return fmt.Errorf("archive: add packet: %w", err)
	}
	if crossed {
		return a.flushInterval(ctx, boundary)
	}
	return nil
}

// flushInterval drains the buffer, aggregates whatever was collected, and
// hands the resulting ArchiveRecord to the sink. An empty drain (no packets
// arrived during the closed interval) is not an error and produces no
// record.
func (a *Aggregator) flushInterval(ctx context.Context, endTime int64) error {
	drained := a.buffer.Drain()
	if len(drained) == 0 {
		a.log.Debugf("no packets to flush for interval ending at %d", endTime)
		return nil
	}

	a.log.Infof("flushing %d packets for interval ending at %d", len(drained), endTime)

	aggregates := aggregate.Packets(drained)
	rec := a.buildArchiveRecord(endTime, aggregates)

	if err := a.sink.EmitArchiveRecord(ctx, rec); err != nil {
		return fmt.Errorf("archive: sink emit: %w", err)
	}
	a.lastEmittedEnd = endTime
	a.log.Infof("archive record written for timestamp %d", endTime)
	return nil
}

func (a *Aggregator) buildArchiveRecord(dateTime int64, aggregates map[string]aggregate.Aggregate) packet.ArchiveRecord {
	values := make(map[string]*float64, len(packet.ArchiveColumns))
	for _, col := range packet.ArchiveColumns {
		if agg, ok := aggregates[col]; ok && agg.Valid {
			v := agg.Value
			values[col] = &v
		}
	}
	return packet.ArchiveRecord{
		DateTime: dateTime,
		Interval: a.interval,
		UsUnits:  a.unitSystem,
		Values:   values,
	}
}

// ForceFlush flushes the currently open interval at shutdown. Per
// SPEC_FULL.md §1 item 3, the synthetic end time is the larger of wall
// clock now and lastEmittedEnd+interval, so archive records stay strictly
// increasing even if force-flush races wall-clock adjustment or fires
// before a full interval has elapsed.
func (a *Aggregator) ForceFlush(ctx context.Context) error {
	if a.buffer.IsEmpty() {
		return nil
	}
	end := a.now()
	if floor := a.lastEmittedEnd + int64(a.interval); end <= floor {
		end = floor
	}
	return a.flushInterval(ctx, end)
}

// Interval reports the configured interval length in seconds.
func (a *Aggregator) Interval() int32 { return a.interval }

// UnitSystem reports the configured unit system tag.
func (a *Aggregator) UnitSystem() int { return a.unitSystem }
