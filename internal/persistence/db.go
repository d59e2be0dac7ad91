// Package persistence provides the SQLite balance log: an append-only
// side channel of (timestamp, simulation_id, balance) tuples. Nothing
// reads it back during a run.
package persistence

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for simulation state logging.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS simulation_state (
		timestamp TEXT NOT NULL,
		simulation_id TEXT NOT NULL,
		balance REAL NOT NULL,
		PRIMARY KEY (timestamp, simulation_id)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// LogState appends one balance snapshot for a simulation.
func (db *DB) LogState(simulationID string, ts time.Time, balance float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO simulation_state (timestamp, simulation_id, balance) VALUES (?, ?, ?)",
		ts.Format(time.RFC3339), simulationID, balance,
	)
	return err
}

// StateRow is one logged balance snapshot.
type StateRow struct {
	Timestamp string  `db:"timestamp"`
	Balance   float64 `db:"balance"`
}

// History returns every snapshot for a simulation in time order.
func (db *DB) History(simulationID string) ([]StateRow, error) {
	var rows []StateRow
	err := db.conn.Select(&rows,
		"SELECT timestamp, balance FROM simulation_state WHERE simulation_id = ? ORDER BY timestamp",
		simulationID,
	)
	return rows, err
}
