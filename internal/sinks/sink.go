// Package sinks defines the persistence boundary every downstream store
// implements, and provides filesystem, SQL, and time-series concrete
// sinks, grounded on original_source/crates/weewx-sinks (FsSink,
// PostgresSink, SqliteSink, InfluxSink all implement one `emit` trait).
package sinks

import (
	"context"

	"github.com/ask-23/weex/internal/packet"
)

// PacketSink persists a canonical packet. Implementations are independent
// objects with no shared mutable state and never call back into the
// aggregator (§9 design note).
type PacketSink interface {
	EmitPacket(ctx context.Context, pkt packet.WeatherPacket) error
	Close() error
}

// ArchiveSink persists an aggregated archive record.
type ArchiveSink interface {
	EmitArchiveRecord(ctx context.Context, rec packet.ArchiveRecord) error
	Close() error
}

// Sink is the union of PacketSink and ArchiveSink: every canonical packet
// AND every closed-interval archive record can be offered to it. Fanout
// implements both halves; each concrete sink in this package implements
// only one of them.
type Sink interface {
	PacketSink
	ArchiveSink
}
