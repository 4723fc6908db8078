package ingest

import (
	"context"
	"math"
	"time"

	"github.com/ask-23/weex/internal/packet"
)

// Simulator is a synthetic driver that manufactures plausible-looking
// packets on a fixed cadence, grounded on
// original_source/crates/weex-ingest/src/simulator.rs: observation values
// are a deterministic pseudo-variation derived from the packet's own
// timestamp (not a random source), so runs are reproducible.
type Simulator struct {
	state

	station    string
	intervalS  int32
	delay      time.Duration
	unitSystem int
	sleep      func(d time.Duration)
}

// NewSimulator constructs a Simulator driver. delaySeconds controls how
// long GetPacket blocks between manufactured packets.
func NewSimulator(station string, intervalS int32, delaySeconds int, unitSystem int) *Simulator {
	return &Simulator{
		station:    station,
		intervalS:  intervalS,
		delay:      time.Duration(delaySeconds) * time.Second,
		unitSystem: unitSystem,
		sleep:      time.Sleep,
	}
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) Start(ctx context.Context) error {
	return s.state.start()
}

func (s *Simulator) Stop() error {
	return s.state.stop()
}

func (s *Simulator) IsActive() bool { return s.state.isActive() }

// GetPacket blocks for the configured delay (or until ctx is cancelled),
// then returns one synthetic WeatherPacket.
func (s *Simulator) GetPacket(ctx context.Context) (packet.WeatherPacket, error) {
	if err := s.requireActive(); err != nil {
		return packet.WeatherPacket{}, err
	}

	select {
	case <-ctx.Done():
		return packet.WeatherPacket{}, ctx.Err()
	case <-after(s.delay):
	}

	now := time.Now().Unix()
	return s.synthesize(now), nil
}

// after returns a channel that fires once d has elapsed (immediately for a
// zero delay, which is how tests drive the simulator without real sleeps).
func after(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// synthesize derives deterministic, bounded pseudo-variation from the
// timestamp alone: no randomness, so identical timestamps always produce
// identical packets.
func (s *Simulator) synthesize(now int64) packet.WeatherPacket {
	phase := float64(now%3600) / 3600.0 * 2 * math.Pi

	outTemp := 18.0 + 6*math.Sin(phase)
	outHumidity := 55.0 + 20*math.Sin(phase+1)
	barometer := 1013.0 + 5*math.Sin(phase+2)
	windSpeed := 3.0 + 2*math.Abs(math.Sin(phase+3))
	windDir := math.Mod(float64(now%360), 360)
	rain := 0.0
	if now%900 < 60 {
		rain = 0.2
	}

	return packet.WeatherPacket{
		DateTime: now,
		Station:  s.station,
		Interval: s.intervalS,
		Observations: map[string]packet.ObservationValue{
			"outTemp":     packet.Float(round2(outTemp)),
			"outHumidity": packet.Float(round2(outHumidity)),
			"barometer":   packet.Float(round2(barometer)),
			"windSpeed":   packet.Float(round2(windSpeed)),
			"windDir":     packet.Float(round2(windDir)),
			"rain":        packet.Float(round2(rain)),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
