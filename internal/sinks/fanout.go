package sinks

import (
	"context"

	"github.com/ask-23/weex/internal/packet"
)

// Logger is the narrow logging surface the fanout sink needs.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Fanout dispatches every packet/record to a list of independent
// downstream sinks. Per SPEC_FULL.md §4's multiple-sinks requirement, a
// failure in one sink must never block or corrupt another: Fanout calls
// every sink unconditionally and logs (rather than returns) individual
// failures, returning an error only if ALL configured sinks of a given
// kind failed.
type Fanout struct {
	packetSinks  []PacketSink
	archiveSinks []ArchiveSink
	log          Logger
}

// NewFanout builds a combined sink view over independently configured
// packet and archive sinks. Either slice may be empty.
func NewFanout(packetSinks []PacketSink, archiveSinks []ArchiveSink, log Logger) *Fanout {
	return &Fanout{packetSinks: packetSinks, archiveSinks: archiveSinks, log: log}
}

// EmitPacket offers pkt to every configured packet sink.
func (f *Fanout) EmitPacket(ctx context.Context, pkt packet.WeatherPacket) error {
	if len(f.packetSinks) == 0 {
		return nil
	}
	failures := 0
	for _, sink := range f.packetSinks {
		if err := sink.EmitPacket(ctx, pkt); err != nil {
			f.log.Warnf("fanout: packet sink failed: %v", err)
			failures++
		}
	}
	if failures == len(f.packetSinks) {
		return errAllSinksFailed
	}
	return nil
}

// EmitArchiveRecord offers rec to every configured archive sink.
func (f *Fanout) EmitArchiveRecord(ctx context.Context, rec packet.ArchiveRecord) error {
	if len(f.archiveSinks) == 0 {
		return nil
	}
	failures := 0
	for _, sink := range f.archiveSinks {
		if err := sink.EmitArchiveRecord(ctx, rec); err != nil {
			f.log.Warnf("fanout: archive sink failed: %v", err)
			failures++
		}
	}
	if failures == len(f.archiveSinks) {
		return errAllSinksFailed
	}
	return nil
}

// Close closes every configured sink, collecting (but not stopping on)
// individual close errors.
func (f *Fanout) Close() error {
	var firstErr error
	for _, sink := range f.packetSinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, sink := range f.archiveSinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type fanoutError string

func (e fanoutError) Error() string { return string(e) }

const errAllSinksFailed = fanoutError("sinks: all configured sinks failed")
