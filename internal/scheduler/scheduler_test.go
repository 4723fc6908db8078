package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ask-23/weex/internal/archive"
	"github.com/ask-23/weex/internal/ingest"
	"github.com/ask-23/weex/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...interface{}) {}
func (nopLog) Infof(string, ...interface{})  {}
func (nopLog) Warnf(string, ...interface{})  {}
func (nopLog) Errorf(string, ...interface{}) {}

type fakeArchiveSink struct {
	mu      sync.Mutex
	records []packet.ArchiveRecord
}

func (f *fakeArchiveSink) EmitArchiveRecord(_ context.Context, rec packet.ArchiveRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}
func (f *fakeArchiveSink) Close() error { return nil }

type fakeLiveState struct {
	mu      sync.Mutex
	packets []packet.WeatherPacket
}

func (f *fakeLiveState) Inject(pkt packet.WeatherPacket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, pkt)
}

func (f *fakeLiveState) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.packets)
}

type fakePacketSink struct {
	mu      sync.Mutex
	packets []packet.WeatherPacket
}

func (f *fakePacketSink) EmitPacket(_ context.Context, pkt packet.WeatherPacket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, pkt)
	return nil
}

func (f *fakePacketSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.packets)
}

type fatalDriver struct {
	active bool
}

func (d *fatalDriver) Name() string { return "fatal" }
func (d *fatalDriver) Start(context.Context) error {
	d.active = true
	return nil
}
func (d *fatalDriver) Stop() error {
	d.active = false
	return nil
}
func (d *fatalDriver) IsActive() bool { return d.active }
func (d *fatalDriver) GetPacket(context.Context) (packet.WeatherPacket, error) {
	d.active = false
	return packet.WeatherPacket{}, &ingest.CommunicationError{Detail: "simulated NIC failure"}
}

func TestSchedulerStopsOnFatalCommunicationError(t *testing.T) {
	driver := &fatalDriver{}
	sink := &fakeArchiveSink{}
	agg := archive.New(300, packet.UnitsMetric, sink, func() int64 { return time.Now().Unix() }, nil)
	live := &fakeLiveState{}
	packetSink := &fakePacketSink{}

	sched := New(driver, agg, live, packetSink, nopLog{})

	err := sched.Run(context.Background())
	require.Error(t, err)
	var comm *ingest.CommunicationError
	assert.ErrorAs(t, err, &comm)
	assert.False(t, driver.IsActive())
}

func TestSchedulerFeedsLiveStateAndAggregator(t *testing.T) {
	sim := ingest.NewSimulator("station-a", 300, 0, packet.UnitsMetric)
	sink := &fakeArchiveSink{}
	agg := archive.New(300, packet.UnitsMetric, sink, func() int64 { return time.Now().Unix() }, nil)
	live := &fakeLiveState{}
	packetSink := &fakePacketSink{}

	sched := New(sim, agg, live, packetSink, nopLog{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, live.count(), 0, "scheduler must inject at least one packet into live state")
	assert.Equal(t, live.count(), packetSink.count(), "every driver-sourced packet must also reach the packet sink fanout")
	assert.False(t, sim.IsActive(), "scheduler must stop the driver on shutdown")
}
