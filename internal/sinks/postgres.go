package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/ask-23/weex/internal/packet"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// archiveSchema matches the column layout in
// original_source/crates/weex-db/src/schema.rs's ArchiveRow, which the
// comment there requires stay in strict parity with the production MySQL
// schema this daemon's data feeds.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS archive (
	"dateTime" BIGINT PRIMARY KEY,
	"usUnits" INTEGER NOT NULL,
	interval INTEGER NOT NULL,
	"outTemp" DOUBLE PRECISION,
	"inTemp" DOUBLE PRECISION,
	"extraTemp1" DOUBLE PRECISION,
	"outHumidity" DOUBLE PRECISION,
	"inHumidity" DOUBLE PRECISION,
	barometer DOUBLE PRECISION,
	pressure DOUBLE PRECISION,
	altimeter DOUBLE PRECISION,
	"windSpeed" DOUBLE PRECISION,
	"windDir" DOUBLE PRECISION,
	"windGust" DOUBLE PRECISION,
	"windGustDir" DOUBLE PRECISION,
	rain DOUBLE PRECISION,
	"rainRate" DOUBLE PRECISION,
	dewpoint DOUBLE PRECISION,
	windchill DOUBLE PRECISION,
	heatindex DOUBLE PRECISION,
	radiation DOUBLE PRECISION,
	"UV" DOUBLE PRECISION,
	"rxCheckPercent" DOUBLE PRECISION
)`

const archiveInsert = `
INSERT INTO archive (
	"dateTime", "usUnits", interval,
	"outTemp", "inTemp", "extraTemp1",
	"outHumidity", "inHumidity",
	barometer, pressure, altimeter,
	"windSpeed", "windDir", "windGust", "windGustDir",
	rain, "rainRate",
	dewpoint, windchill, heatindex,
	radiation, "UV", "rxCheckPercent"
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
)
ON CONFLICT ("dateTime") DO NOTHING`

// PostgresSink persists archive records into the "archive" table, grounded
// on original_source/crates/weewx-sinks/src/postgres.rs and the schema in
// original_source/crates/weex-db/src/{schema,queries}.rs.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink dials url (retrying the initial connection with
// exponential backoff, since sink construction happens at daemon startup
// when the database may not be reachable yet) and ensures the archive
// table exists.
func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	var pool *pgxpool.Pool
	connect := func() error {
		p, err := pgxpool.Connect(ctx, url)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("postgres sink: connect: %w", err)
	}

	if _, err := pool.Exec(ctx, archiveSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres sink: create table: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// EmitArchiveRecord inserts rec, projecting every fixed archive column.
// Duplicate timestamps (a re-delivered record) are silently ignored.
func (s *PostgresSink) EmitArchiveRecord(ctx context.Context, rec packet.ArchiveRecord) error {
	args := archiveArgs(rec)
	if _, err := s.pool.Exec(ctx, archiveInsert, args...); err != nil {
		return fmt.Errorf("postgres sink: insert: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func archiveArgs(rec packet.ArchiveRecord) []interface{} {
	return []interface{}{
		rec.DateTime, rec.UsUnits, rec.Interval,
		rec.Column("outTemp"), rec.Column("inTemp"), rec.Column("extraTemp1"),
		rec.Column("outHumidity"), rec.Column("inHumidity"),
		rec.Column("barometer"), rec.Column("pressure"), rec.Column("altimeter"),
		rec.Column("windSpeed"), rec.Column("windDir"), rec.Column("windGust"), rec.Column("windGustDir"),
		rec.Column("rain"), rec.Column("rainRate"),
		rec.Column("dewpoint"), rec.Column("windchill"), rec.Column("heatindex"),
		rec.Column("radiation"), rec.Column("UV"), rec.Column("rxCheckPercent"),
	}
}
