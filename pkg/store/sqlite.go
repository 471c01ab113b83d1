package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/sensmon/pkg/protocol"

	_ "modernc.org/sqlite"
)

// SQLite mirrors readings and alerts into a database. Rows carry the name of
// the file the device created so several sessions can share one database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	session string
}

// Ensure SQLite implements Store.
var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at path and prepares its tables.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			device_ms INTEGER NOT NULL,
			temperature REAL NOT NULL,
			humidity REAL NOT NULL,
			light INTEGER NOT NULL,
			accel_x REAL NOT NULL,
			accel_y REAL NOT NULL,
			accel_z REAL NOT NULL,
			gyro_x REAL NOT NULL,
			gyro_y REAL NOT NULL,
			gyro_z REAL NOT NULL,
			status TEXT NOT NULL,
			received_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			device_ms INTEGER NOT NULL,
			message TEXT NOT NULL,
			received_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_readings_session ON readings(session, device_ms)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_session ON alerts(session, device_ms)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// Create starts a new session named after the device file and its start time.
func (s *SQLite) Create(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = fmt.Sprintf("%s@%s", name, s.now().Format(time.RFC3339))
	return nil
}

// WriteHeader is a no-op; the table layout is fixed.
func (s *SQLite) WriteHeader(columns []string) error {
	return nil
}

func (s *SQLite) currentSession() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == "" {
		return "", ErrNoFile
	}
	return s.session, nil
}

func (s *SQLite) WriteRecord(rec protocol.Record) error {
	session, err := s.currentSession()
	if err != nil {
		return err
	}

	snap := rec.Snapshot
	_, err = s.db.Exec(`INSERT INTO readings
		(session, device_ms, temperature, humidity, light, accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z, status, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session,
		int64(rec.Timestamp),
		snap.Temperature,
		snap.Humidity,
		snap.Light,
		snap.Accel.X,
		snap.Accel.Y,
		snap.Accel.Z,
		snap.Gyro.X,
		snap.Gyro.Y,
		snap.Gyro.Z,
		rec.Status.String(),
		s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func (s *SQLite) WriteAlert(msg string, ts protocol.Millis) error {
	session, err := s.currentSession()
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO alerts (session, device_ms, message, received_at) VALUES (?, ?, ?, ?)`,
		session, int64(ts), msg, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Flush is a no-op; every insert is committed on its own.
func (s *SQLite) Flush() error {
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// CountReadings returns the number of readings stored for sessions whose name
// starts with prefix.
func (s *SQLite) CountReadings(prefix string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM readings WHERE session LIKE ? || '%'`, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}
