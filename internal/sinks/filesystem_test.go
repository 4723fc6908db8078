package sinks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ask-23/weex/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemSinkAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "packets.jsonl")

	sink, err := NewFilesystemSink(path)
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.EmitPacket(ctx, packet.WeatherPacket{
		DateTime:     1,
		Observations: map[string]packet.ObservationValue{"outTemp": packet.Float(20)},
	}))
	require.NoError(t, sink.EmitPacket(ctx, packet.WeatherPacket{DateTime: 2}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(string(contents))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"outTemp":20`)
	assert.Contains(t, lines[1], `"dateTime":2`)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
