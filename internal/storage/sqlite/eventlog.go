package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patina-dev/patina/internal/errs"
	"github.com/patina-dev/patina/internal/types"
)

// AppendResult reports how many of a batch were newly stored vs.
// recognized as duplicates by content hash.
type AppendResult struct {
	Inserted         int
	SkippedDuplicate int
}

// contentHash mirrors the teacher's hash_ids.go approach: a stable id
// derived from the fields that make an event unique, so re-ingesting the
// same content is a no-op rather than growing the log.
func contentHash(eventType, sourceID string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(eventType))
	h.Write([]byte{0})
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Append inserts events into the log, skipping any whose content hash
// already exists for the same (event_type, source_id). Idempotent by
// design: callers may re-submit an entire re-scan without double-counting.
func (s *Store) Append(events []types.Event) (AppendResult, error) {
	var res AppendResult
	err := s.withWrite(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO events (id, event_type, source_id, timestamp, data_json)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range events {
			id := e.ID
			if id == "" {
				id = contentHash(e.EventType, e.SourceID, e.Data)
			}
			result, err := stmt.Exec(id, e.EventType, e.SourceID, e.Timestamp.UnixNano(), e.Data)
			if err != nil {
				return fmt.Errorf("%w: appending event %s: %v", errs.ErrTransientIO, id, err)
			}
			n, _ := result.RowsAffected()
			if n > 0 {
				res.Inserted++
			} else {
				res.SkippedDuplicate++
			}
		}
		return nil
	})
	return res, err
}

// Quarantine marks an event as failing schema validation for its known
// type, per spec's "quarantined, not lost" contract — it stays in the
// log but is excluded from materialization scans.
func (s *Store) Quarantine(eventID string) error {
	return s.withWrite(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE events SET quarantined = 1 WHERE id = ?`, eventID)
		return err
	})
}

// Scan streams events matching filter, ordered by rowid (insertion
// order), excluding quarantined rows. Read-committed, finite,
// non-restartable per call — callers re-invoke Scan with a fresh
// AfterID to resume.
func (s *Store) Scan(filter types.EventFilter) ([]types.Event, error) {
	query := `SELECT id, event_type, source_id, timestamp, data_json FROM events WHERE quarantined = 0`
	var args []interface{}

	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.SourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, filter.SourceID)
	}
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, filter.Since.UnixNano())
	}
	if filter.AfterID > 0 {
		query += ` AND rowid > ?`
		args = append(args, filter.AfterID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning events: %v", errs.ErrTransientIO, err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var e types.Event
		var ts int64
		if err := rows.Scan(&e.ID, &e.EventType, &e.SourceID, &ts, &e.Data); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of non-quarantined events matching filter.
func (s *Store) Count(filter types.EventFilter) (int, error) {
	query := `SELECT COUNT(*) FROM events WHERE quarantined = 0`
	var args []interface{}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.SourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, filter.SourceID)
	}
	var n int
	err := s.readDB.QueryRow(query, args...).Scan(&n)
	return n, err
}

// Watermark returns the last event rowid observed by the Fact
// Materializer (0 if materialization has never run).
func (s *Store) Watermark() (int64, error) {
	var last string
	err := s.readDB.QueryRow(`SELECT last_event_id FROM watermark WHERE id = 1`).Scan(&last)
	if err != nil {
		return 0, err
	}
	if last == "" {
		return 0, nil
	}
	var rowid int64
	err = s.readDB.QueryRow(`SELECT rowid FROM events WHERE id = ?`, last).Scan(&rowid)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return rowid, err
}

// AdvanceWatermark records the last materialized event id, committed in
// the same transaction as the writes it follows.
func AdvanceWatermark(tx *sql.Tx, lastEventID string) error {
	_, err := tx.Exec(`UPDATE watermark SET last_event_id = ? WHERE id = 1`, lastEventID)
	return err
}

// WithWrite exposes the single-writer transaction to the Fact
// Materializer, which must commit facts, FTS rows, and the watermark
// advance atomically per batch.
func (s *Store) WithWrite(fn func(*sql.Tx) error) error {
	return s.withWrite(fn)
}

// ReadDB exposes the pooled read connection to oracles and the
// Structural Deriver, which only ever SELECT.
func (s *Store) ReadDB() *sql.DB { return s.readDB }
