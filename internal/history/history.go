// Package history is an optional, out-of-core-scope sink for per-MAC scan
// history, supplementing spec.md §6's "optional session history... may
// persist a per-MAC JSON file" note with a small SQLite-backed store. No
// package under internal/orchestrator, internal/correlator, or
// internal/driver imports this one; only cmd/nscan wires it in, the same
// way the teacher keeps its sqlite repository behind an interface the core
// service depends on only loosely.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"nscan/internal/model"
)

// Store persists a time series of Device Record snapshots keyed by MAC.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and ensures its schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sightings (
		mac TEXT NOT NULL,
		observed_at DATETIME NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		record JSON NOT NULL,
		PRIMARY KEY (mac, observed_at)
	);
	CREATE INDEX IF NOT EXISTS idx_sightings_mac ON sightings(mac);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one snapshot of rec, tagged with the scan session it was
// observed during, to its MAC's history. Records without a MAC are
// ignored, since the table is keyed on it; a device known only by IP has
// no stable key to accumulate history under.
func (s *Store) Record(ctx context.Context, sessionID string, rec *model.DeviceRecord) error {
	if rec.MAC == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}
	observedAt := rec.LastSeen
	if observedAt.IsZero() {
		observedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sightings (mac, observed_at, session_id, record)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mac, observed_at) DO UPDATE SET session_id = excluded.session_id, record = excluded.record
	`, rec.MAC, observedAt, sessionID, data)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Sighting is one historical snapshot returned by History.
type Sighting struct {
	ObservedAt time.Time
	SessionID  string
	Record     *model.DeviceRecord
}

// History returns up to limit sightings for mac, most recent first.
func (s *Store) History(ctx context.Context, mac string, limit int) ([]Sighting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT observed_at, session_id, record FROM sightings
		WHERE mac = ?
		ORDER BY observed_at DESC
		LIMIT ?
	`, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Sighting
	for rows.Next() {
		var observedAt time.Time
		var sessionID string
		var data []byte
		if err := rows.Scan(&observedAt, &sessionID, &data); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		rec := &model.DeviceRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, fmt.Errorf("history: unmarshal record: %w", err)
		}
		out = append(out, Sighting{ObservedAt: observedAt, SessionID: sessionID, Record: rec})
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
