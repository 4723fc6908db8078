// Package ingest defines the polymorphic station driver abstraction and its
// concrete implementations (the INTERCEPTOR UDP listener, and a synthetic
// Simulator), grounded on original_source/crates/weex-ingest and on
// telegraf's plugins/inputs/statsd listener-loop style.
package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/ask-23/weex/internal/packet"
)

// Error taxonomy per spec §7. Transient errors (Timeout, InvalidPacket) are
// reported to the caller and must not terminate the driver; fatal errors
// (CommunicationError on bind/socket failure) surface and require a
// restart cycle.
var (
	ErrAlreadyStarted  = errors.New("ingest: driver already started")
	ErrNotActive       = errors.New("ingest: driver not active")
	ErrTimeout         = errors.New("ingest: timeout waiting for packet")
	ErrUnknownDriver   = errors.New("ingest: unknown driver name")
)

// InvalidPacketError wraps a malformed-datagram parse failure with its
// detail, matching spec §7's InvalidPacket{detail}.
type InvalidPacketError struct {
	Detail string
}

func (e *InvalidPacketError) Error() string { return "ingest: invalid packet: " + e.Detail }

// CommunicationError wraps a socket-level failure, matching spec §7's
// CommunicationError{detail}.
type CommunicationError struct {
	Detail string
}

func (e *CommunicationError) Error() string { return "ingest: communication error: " + e.Detail }

// Logger is the narrow logging surface drivers need.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// StationDriver is the capability set every driver variant implements:
// name, lifecycle (start/stop), get_packet, and an is-active probe.
// Variants recognized today are the Simulator and the INTERCEPTOR UDP
// listener; future hardware adapters implement the same interface.
type StationDriver interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	GetPacket(ctx context.Context) (packet.WeatherPacket, error)
	IsActive() bool
}

// state is the shared {Idle, Active} state machine every driver variant
// embeds, so lifecycle transitions (and their idempotence rules) are
// implemented exactly once.
type state struct {
	mu     sync.Mutex
	active bool
}

func (s *state) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyStarted
	}
	s.active = true
	return nil
}

// stop transitions Active -> Idle. Per SPEC_FULL.md §1 item 4, calling stop
// on an already-Idle driver is a no-op success, not an error.
func (s *state) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return nil
}

func (s *state) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *state) requireActive() error {
	if !s.isActive() {
		return ErrNotActive
	}
	return nil
}

// Factory produces a new StationDriver instance, matching
// original_source/crates/weex-ingest/src/driver.rs's DriverFactory trait.
type Factory func() StationDriver

// Registry maps a textual driver name to a factory that produces an
// instance, per spec §4.4's "registry maps a textual driver name to a
// factory."
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name, overwriting any existing
// registration for that name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a new driver by registered name.
func (r *Registry) Create(name string) (StationDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, ErrUnknownDriver
	}
	return factory(), nil
}

// Names lists every registered driver name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
