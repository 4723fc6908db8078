package sinks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ask-23/weex/internal/packet"
	_ "modernc.org/sqlite"
)

// sqliteArchiveSchema mirrors archiveSchema's columns but with SQLite's
// looser, quote-insensitive typing (SQLite is untyped storage; column
// affinities here are documentation, not enforcement).
const sqliteArchiveSchema = `
CREATE TABLE IF NOT EXISTS archive (
	dateTime INTEGER PRIMARY KEY,
	usUnits INTEGER NOT NULL,
	interval INTEGER NOT NULL,
	outTemp REAL, inTemp REAL, extraTemp1 REAL,
	outHumidity REAL, inHumidity REAL,
	barometer REAL, pressure REAL, altimeter REAL,
	windSpeed REAL, windDir REAL, windGust REAL, windGustDir REAL,
	rain REAL, rainRate REAL,
	dewpoint REAL, windchill REAL, heatindex REAL,
	radiation REAL, UV REAL, rxCheckPercent REAL
)`

const sqliteArchiveInsert = `
INSERT OR IGNORE INTO archive (
	dateTime, usUnits, interval,
	outTemp, inTemp, extraTemp1,
	outHumidity, inHumidity,
	barometer, pressure, altimeter,
	windSpeed, windDir, windGust, windGustDir,
	rain, rainRate,
	dewpoint, windchill, heatindex,
	radiation, UV, rxCheckPercent
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink persists archive records to a local SQLite file via
// modernc.org/sqlite's pure-Go driver, grounded on
// original_source/crates/weewx-sinks/src/sqlite.rs. It is the lightweight
// alternative to PostgresSink for single-station deployments with no
// external database.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if necessary) the database file at path
// and ensures the archive table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open: %w", err)
	}
	// SQLite serializes writes at the file level; a single open
	// connection avoids "database is locked" errors under concurrent
	// sink writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteArchiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: create table: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// EmitArchiveRecord inserts rec, ignoring duplicate timestamps.
func (s *SQLiteSink) EmitArchiveRecord(ctx context.Context, rec packet.ArchiveRecord) error {
	args := archiveArgs(rec)
	if _, err := s.db.ExecContext(ctx, sqliteArchiveInsert, args...); err != nil {
		return fmt.Errorf("sqlite sink: insert: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
