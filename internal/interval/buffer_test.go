package interval

import (
	"testing"

	"github.com/ask-23/weex/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkt(t int64) packet.WeatherPacket {
	return packet.WeatherPacket{DateTime: t}
}

func TestCalculateIntervalEnd(t *testing.T) {
	b := New(300)
	assert.Equal(t, int64(300), b.CalculateIntervalEnd(0))
	assert.Equal(t, int64(300), b.CalculateIntervalEnd(100))
	assert.Equal(t, int64(600), b.CalculateIntervalEnd(300))
	assert.Equal(t, int64(600), b.CalculateIntervalEnd(301))
	assert.Equal(t, int64(900), b.CalculateIntervalEnd(600))
}

func TestBufferSingleInterval(t *testing.T) {
	b := New(300)

	_, crossed, err := b.Add(pkt(100))
	require.NoError(t, err)
	assert.False(t, crossed)

	_, crossed, err = b.Add(pkt(200))
	require.NoError(t, err)
	assert.False(t, crossed)

	assert.Equal(t, 2, b.Len())
}

func TestBufferBoundaryScenario(t *testing.T) {
	// spec.md §8 scenario 1: {100, 200, 400} with I=300.
	b := New(300)

	_, crossed, err := b.Add(pkt(100))
	require.NoError(t, err)
	assert.False(t, crossed)

	_, crossed, err = b.Add(pkt(200))
	require.NoError(t, err)
	assert.False(t, crossed)

	boundary, crossed, err := b.Add(pkt(400))
	require.NoError(t, err)
	require.True(t, crossed)
	assert.Equal(t, int64(300), boundary)

	drained := b.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, int64(100), drained[0].DateTime)
	assert.Equal(t, int64(200), drained[1].DateTime)

	// 400 must be retained in the buffer, not folded into the drained slice.
	assert.Equal(t, 1, b.Len())
	end, ok := b.IntervalEnd()
	require.True(t, ok)
	assert.Equal(t, int64(600), end)
}

func TestBufferDrainResetsWhenNoPending(t *testing.T) {
	b := New(300)
	_, _, err := b.Add(pkt(100))
	require.NoError(t, err)
	_, _, err = b.Add(pkt(200))
	require.NoError(t, err)

	packets := b.Drain()
	assert.Len(t, packets, 2)
	assert.True(t, b.IsEmpty())
	_, ok := b.IntervalEnd()
	assert.False(t, ok)
}

func TestBufferOverflow(t *testing.T) {
	b := New(1) // max_packets = max(2,100) = 100
	for i := int64(0); i < 100; i++ {
		_, _, err := b.Add(pkt(1))
		require.NoError(t, err)
	}
	_, _, err := b.Add(pkt(1))
	assert.ErrorIs(t, err, ErrBufferOverflow)
}
