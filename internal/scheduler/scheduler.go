// Package scheduler runs the pull loop that drains a station driver into
// the archive aggregator and live state, grounded on
// original_source/crates/weex-daemon/src/scheduler.rs's Scheduler.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ask-23/weex/internal/archive"
	"github.com/ask-23/weex/internal/ingest"
	"github.com/ask-23/weex/internal/packet"
)

// Logger is the narrow logging surface the scheduler needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// LiveState receives every packet as it arrives, independent of interval
// aggregation.
type LiveState interface {
	Inject(pkt packet.WeatherPacket)
}

// PacketSink receives every raw packet the driver produces, independent of
// both live state and the archive aggregator — the same fanout HTTP
// vendor uploads are handed to, per spec §5 item 2's "calls the
// synchronous inject_packet then the sink emit."
type PacketSink interface {
	EmitPacket(ctx context.Context, pkt packet.WeatherPacket) error
}

// Scheduler pulls packets from a driver in a loop and feeds them to the
// aggregator, live state, and packet sink fanout. Unlike
// original_source/crates/weex-daemon/src/scheduler.rs, a single
// GetPacket error does not stop the loop — Timeout and InvalidPacket are
// expected transient conditions (spec §7) and are logged, not fatal.
type Scheduler struct {
	driver     ingest.StationDriver
	aggregator *archive.Aggregator
	live       LiveState
	sink       PacketSink
	log        Logger
}

// New constructs a Scheduler over an already-registered driver instance.
func New(driver ingest.StationDriver, aggregator *archive.Aggregator, live LiveState, sink PacketSink, log Logger) *Scheduler {
	return &Scheduler{driver: driver, aggregator: aggregator, live: live, sink: sink, log: log}
}

// Run starts the driver and loops calling GetPacket until ctx is
// cancelled, at which point it stops the driver and force-flushes the
// aggregator before returning. A CommunicationError or ErrNotActive from
// the driver also ends the loop: the aggregator is force-flushed and the
// error is returned.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.driver.Start(ctx); err != nil {
		return err
	}
	s.log.Infof("scheduler: driver %q started", s.driver.Name())

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(ctx)
		default:
		}

		pkt, err := s.driver.GetPacket(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return s.shutdown(ctx)
			}
			if errors.Is(err, ingest.ErrTimeout) {
				s.log.Debugf("scheduler: timeout waiting for packet, retrying")
				continue
			}
			var invalid *ingest.InvalidPacketError
			if errors.As(err, &invalid) {
				s.log.Warnf("scheduler: dropped invalid packet: %v", err)
				continue
			}
			var comm *ingest.CommunicationError
			if errors.As(err, &comm) || errors.Is(err, ingest.ErrNotActive) {
				s.log.Errorf("scheduler: driver %q went idle: %v", s.driver.Name(), err)
				_ = s.aggregator.ForceFlush(context.Background())
				return fmt.Errorf("scheduler: driver %q stopped: %w", s.driver.Name(), err)
			}
			s.log.Errorf("scheduler: driver error: %v", err)
			continue
		}

		s.log.Infof("scheduler: received packet at %d with %d observations", pkt.DateTime, len(pkt.Observations))
		s.live.Inject(pkt)
		if err := s.aggregator.AddPacket(ctx, pkt); err != nil {
			s.log.Errorf("scheduler: aggregator error: %v", err)
		}
		if err := s.sink.EmitPacket(ctx, pkt); err != nil {
			s.log.Warnf("scheduler: packet sink error: %v", err)
		}
	}
}

func (s *Scheduler) shutdown(ctx context.Context) error {
	s.log.Infof("scheduler: stopping")
	if err := s.driver.Stop(); err != nil {
		s.log.Warnf("scheduler: error stopping driver: %v", err)
	}
	if err := s.aggregator.ForceFlush(context.Background()); err != nil {
		s.log.Warnf("scheduler: error flushing aggregator: %v", err)
	}
	s.log.Infof("scheduler: stopped")
	return nil
}
