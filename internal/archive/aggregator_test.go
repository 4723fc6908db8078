package archive

import (
	"context"
	"testing"

	"github.com/ask-23/weex/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	records []packet.ArchiveRecord
}

func (f *fakeSink) EmitArchiveRecord(_ context.Context, rec packet.ArchiveRecord) error {
	f.records = append(f.records, rec)
	return nil
}
func (f *fakeSink) Close() error { return nil }

func mkPacket(t int64, obs map[string]packet.ObservationValue) packet.WeatherPacket {
	return packet.WeatherPacket{DateTime: t, Observations: obs}
}

func TestAggregatorIntervalBoundary(t *testing.T) {
	sink := &fakeSink{}
	agg := New(300, packet.UnitsMetric, sink, func() int64 { return 1000 }, nil)
	ctx := context.Background()

	obsAt := func(temp float64) map[string]packet.ObservationValue {
		return map[string]packet.ObservationValue{"outTemp": packet.Float(temp)}
	}

	require.NoError(t, agg.AddPacket(ctx, mkPacket(100, obsAt(10))))
	require.NoError(t, agg.AddPacket(ctx, mkPacket(200, obsAt(20))))
	assert.Empty(t, sink.records, "no flush until boundary crossed")

	require.NoError(t, agg.AddPacket(ctx, mkPacket(400, obsAt(99))))
	require.Len(t, sink.records, 1)

	rec := sink.records[0]
	assert.Equal(t, int64(300), rec.DateTime)
	require.NotNil(t, rec.Column("outTemp"))
	assert.Equal(t, 15.0, *rec.Column("outTemp")) // avg(10,20), 400's value excluded
}

func TestAggregatorEmptyIntervalNoRecord(t *testing.T) {
	sink := &fakeSink{}
	agg := New(300, packet.UnitsMetric, sink, func() int64 { return 1000 }, nil)
	ctx := context.Background()

	// Force flush with nothing buffered does nothing.
	require.NoError(t, agg.ForceFlush(ctx))
	assert.Empty(t, sink.records)
}

func TestAggregatorForceFlushMonotonic(t *testing.T) {
	sink := &fakeSink{}
	clock := int64(50)
	agg := New(300, packet.UnitsMetric, sink, func() int64 { return clock }, nil)
	ctx := context.Background()

	require.NoError(t, agg.AddPacket(ctx, mkPacket(10, map[string]packet.ObservationValue{"outTemp": packet.Float(5)})))
	// Wall clock (50) is far earlier than the natural interval end (300);
	// ForceFlush must not regress below lastEmittedEnd+interval.
	require.NoError(t, agg.ForceFlush(ctx))
	require.Len(t, sink.records, 1)
	assert.GreaterOrEqual(t, sink.records[0].DateTime, int64(300))
}

func TestAggregatorOrderingIncreasing(t *testing.T) {
	sink := &fakeSink{}
	agg := New(100, packet.UnitsUS, sink, func() int64 { return 0 }, nil)
	ctx := context.Background()

	times := []int64{10, 50, 150, 250, 350}
	for _, ts := range times {
		require.NoError(t, agg.AddPacket(ctx, mkPacket(ts, map[string]packet.ObservationValue{"outTemp": packet.Float(1)})))
	}
	require.GreaterOrEqual(t, len(sink.records), 2)
	for i := 1; i < len(sink.records); i++ {
		assert.Greater(t, sink.records[i].DateTime, sink.records[i-1].DateTime)
	}
}
