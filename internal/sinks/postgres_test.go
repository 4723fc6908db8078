package sinks

import (
	"testing"

	"github.com/ask-23/weex/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveArgsOrdersColumnsAndPassesThroughNulls(t *testing.T) {
	outTemp := 21.5
	uv := 3.0
	rec := packet.ArchiveRecord{
		DateTime: 600,
		Interval: 300,
		UsUnits:  packet.UnitsMetric,
		Values: map[string]*float64{
			"outTemp": &outTemp,
			"UV":      &uv,
		},
	}

	args := archiveArgs(rec)
	require.Len(t, args, 23)
	assert.Equal(t, int64(600), args[0])
	assert.Equal(t, packet.UnitsMetric, args[1])
	assert.Equal(t, int32(300), args[2])
	assert.Same(t, &outTemp, args[3])
	assert.Nil(t, args[4], "inTemp was never set and must serialize as a SQL NULL, not a zero value")
	assert.Same(t, &uv, args[21])
}
