// Package livestate holds the process's in-memory view of the most recent
// packet and a bounded rolling history, serving the HTTP API's
// /api/v1/current and /api/v1/history endpoints, grounded on
// original_source/crates/weewx-cli/src/lib.rs's AppState.
package livestate

import (
	"sync"
	"sync/atomic"

	"github.com/ask-23/weex/internal/packet"
	"github.com/prometheus/client_golang/prometheus"
)

// State holds the latest packet and a bounded FIFO history, plus a
// readiness flag and a Prometheus request counter. Lock order is always
// latest before history — every method that needs both acquires them in
// that order — so no method may ever deadlock against another.
type State struct {
	ready int32 // atomic bool

	latestMu sync.RWMutex
	latest   *packet.WeatherPacket

	historyMu sync.RWMutex
	history   []packet.WeatherPacket

	requestsTotal *prometheus.CounterVec
}

// New constructs an empty, not-yet-ready State and registers its
// Prometheus counter against reg (pass prometheus.DefaultRegisterer for
// the global registry, or a fresh registry in tests).
func New(reg prometheus.Registerer) *State {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weewx_requests_total",
		Help: "Total HTTP requests served by the weex API, by route.",
	}, []string{"route"})
	if reg != nil {
		reg.MustRegister(counter)
	}
	return &State{requestsTotal: counter}
}

// SetReady flips the readiness flag the /readyz endpoint reports.
func (s *State) SetReady(ready bool) {
	v := int32(0)
	if ready {
		v = 1
	}
	atomic.StoreInt32(&s.ready, v)
}

// Ready reports the current readiness flag.
func (s *State) Ready() bool { return atomic.LoadInt32(&s.ready) == 1 }

// Inject records pkt as the latest packet and appends it to the bounded
// history, evicting the oldest entry once history reaches
// packet.HistoryCap. Lock order: latest, then history.
func (s *State) Inject(pkt packet.WeatherPacket) {
	cloned := pkt.Clone()

	s.latestMu.Lock()
	s.latest = &cloned
	s.latestMu.Unlock()

	s.historyMu.Lock()
	s.history = append(s.history, cloned)
	if len(s.history) > packet.HistoryCap {
		overflow := len(s.history) - packet.HistoryCap
		s.history = s.history[overflow:]
	}
	s.historyMu.Unlock()
}

// Latest returns the most recently injected packet, or false if none has
// arrived yet.
func (s *State) Latest() (packet.WeatherPacket, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	if s.latest == nil {
		return packet.WeatherPacket{}, false
	}
	return s.latest.Clone(), true
}

// History returns a copy of the rolling history, oldest first.
func (s *State) History() []packet.WeatherPacket {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	out := make([]packet.WeatherPacket, len(s.history))
	copy(out, s.history)
	return out
}

// CountRequest increments the request counter for the named route.
func (s *State) CountRequest(route string) {
	s.requestsTotal.WithLabelValues(route).Inc()
}
