package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ask-23/weex/internal/packet"
)

// FilesystemSink appends every packet as one JSON line to a file,
// grounded on original_source/crates/weewx-sinks/src/lib.rs's FsSink.
// It implements PacketSink only: raw packets are its concern, archive
// rollups belong to the SQL/TSDB sinks.
type FilesystemSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFilesystemSink opens (creating if necessary) path for append.
func NewFilesystemSink(path string) (*FilesystemSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("filesystem sink: mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filesystem sink: open: %w", err)
	}
	return &FilesystemSink{file: f}, nil
}

// EmitPacket appends one JSON-encoded line.
func (s *FilesystemSink) EmitPacket(_ context.Context, pkt packet.WeatherPacket) error {
	line, err := json.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("filesystem sink: marshal: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("filesystem sink: write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *FilesystemSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
