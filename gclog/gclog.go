// Package gclog records per-collection statistics to SQLite.
//
// Recording is strictly layered on top of the collector: the vm package
// does not import gclog, and a recorder failure never affects a
// collection that already completed.
package gclog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gphat/babyvm/vm"
)

// Recorder persists collection statistics to a SQLite database.
type Recorder struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Entry is one recorded collection.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Reached   int
	Swept     int
	Freed     int
	Live      int
	Threshold int
	Duration  time.Duration
}

// Open creates a Recorder backed by the database at dbPath, creating the
// file and schema if needed.
func Open(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		reached INTEGER NOT NULL,
		swept INTEGER NOT NULL,
		freed INTEGER NOT NULL,
		live INTEGER NOT NULL,
		threshold INTEGER NOT NULL,
		duration_us INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Recorder{db: db, dbPath: dbPath}, nil
}

// Record appends one collection's statistics.
func (r *Recorder) Record(stats *vm.CollectionStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO collections (at, reached, swept, freed, live, threshold, duration_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.Timestamp.UnixMicro(),
		stats.Reached,
		stats.Swept,
		stats.Freed,
		stats.Live,
		stats.Threshold,
		stats.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording collection: %w", err)
	}
	return nil
}

// Recent returns up to n collections, most recent first.
func (r *Recorder) Recent(n int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT id, at, reached, swept, freed, live, threshold, duration_us
		 FROM collections ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at, durUs int64
		if err := rows.Scan(&e.ID, &at, &e.Reached, &e.Swept, &e.Freed,
			&e.Live, &e.Threshold, &durUs); err != nil {
			return nil, fmt.Errorf("scanning collection row: %w", err)
		}
		e.Timestamp = time.UnixMicro(at)
		e.Duration = time.Duration(durUs) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
