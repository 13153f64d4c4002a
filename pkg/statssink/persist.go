package statssink

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/protosentry/detector/pkg/protocol"
)

// PersistentSink wraps Sink with an optional SQLite-backed audit log of
// every detection, for deployments that want a durable history rather
// than just in-memory counters. The in-memory counters still work and
// are always kept up to date; the database write is additive.
type PersistentSink struct {
	*Sink
	db *sql.DB
}

// OpenPersistentSink opens (creating if necessary) a SQLite database at
// path and returns a Sink backed by it.
func OpenPersistentSink(path string) (*PersistentSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &PersistentSink{Sink: New(), db: db}, nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS detections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	protocol TEXT NOT NULL,
	confidence REAL NOT NULL,
	method TEXT NOT NULL,
	detector_name TEXT NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
)`

// RecordResult updates the in-memory counters and appends a row to the
// detections table.
func (s *PersistentSink) RecordResult(r protocol.Result) error {
	s.Sink.RecordResult(r)
	_, err := s.db.Exec(
		`INSERT INTO detections (protocol, confidence, method, detector_name, elapsed_ns, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Info.ProtocolType.String(), r.Info.Confidence, r.Method.String(),
		r.DetectorName, r.Elapsed, time.Now().Unix(),
	)
	return err
}

// Close releases the underlying database handle.
func (s *PersistentSink) Close() error {
	return s.db.Close()
}

// CountByProtocol queries the durable log directly, rather than the
// in-memory snapshot, for a protocol's historical detection count.
func (s *PersistentSink) CountByProtocol(t protocol.Type) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM detections WHERE protocol = ?`, t.String(),
	).Scan(&count)
	return count, err
}
