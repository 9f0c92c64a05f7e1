package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/source"
)

// Default timeout for opening and pinging the database
const defaultTimeout = 5 * time.Second

// State is the lifecycle state of the database connection.
type State int

const (
	// StateUnresolved means no resolution has been attempted yet.
	StateUnresolved State = iota
	// StateOpen means a connection is held.
	StateOpen
	// StateClosed means the connection was released. Only Connect or
	// Reconnect leave this state.
	StateClosed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unresolved"
	}
}

// Settings is the part of the configuration store the database source uses.
type Settings interface {
	GetString(key string) string
	Set(key string, value any) error
}

// SettingDatabasePath is the configuration key holding a user-chosen
// database path.
const SettingDatabasePath = "sql_database"

// Options configures a Source.
type Options struct {
	// Settings supplies and persists the user-chosen path. May be nil.
	Settings Settings
	// Prompter is asked for a path when no candidate resolves. May be nil,
	// which behaves like an operator who declines.
	Prompter Prompter
	// Locale formats prompt text. May be nil.
	Locale *locale.Locale
	// Candidates overrides DefaultCandidates.
	Candidates []string
}

// Source serves assets stored as rows of the files table of the client's
// rbx-storage.db. The connection handle is owned exclusively by the Source:
// queries share its lock, while clear, close and reconnect take it
// exclusively.
type Source struct {
	mu    sync.RWMutex
	db    *sql.DB
	path  string
	state State

	settings   Settings
	prompter   Prompter
	locale     *locale.Locale
	candidates []string
}

// New returns an unresolved Source. Call Connect to open it.
func New(opts Options) *Source {
	candidates := opts.Candidates
	if candidates == nil {
		candidates = DefaultCandidates
	}
	return &Source{
		state:      StateUnresolved,
		settings:   opts.Settings,
		prompter:   opts.Prompter,
		locale:     opts.Locale,
		candidates: candidates,
	}
}

// openDB opens and pings the SQLite file at path, creating it if missing.
// Callers validate candidate paths first.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	// busy_timeout helps when the client is writing to the cache concurrently
	connStr := fmt.Sprintf("%s?_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Connect resolves the database location and opens it. It is a no-op when a
// connection is already open.
func (s *Source) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOpen {
		return nil
	}
	return s.resolveLocked(ctx)
}

// Reconnect closes any open connection and performs a fresh resolution.
func (s *Source) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeLocked(); err != nil {
		logging.Warn("Failed to close database before reconnecting: %v", err)
	}
	return s.resolveLocked(ctx)
}

// Close releases the connection. The Source stays closed until Connect or
// Reconnect.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Source) closeLocked() error {
	if s.db == nil {
		if s.state == StateOpen {
			s.setStateLocked(StateClosed)
		}
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.setStateLocked(StateClosed)
	if err == nil {
		logging.Info("Disconnected from database %s", s.path)
	}
	return err
}

func (s *Source) openLocked(ctx context.Context, path string) error {
	db, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	s.db = db
	s.path = path
	s.setStateLocked(StateOpen)
	logging.Info("Connected to database %s", path)
	return nil
}

func (s *Source) setStateLocked(state State) {
	s.state = state
	if state == StateOpen {
		metrics.DBConnectionState.Set(1)
	} else {
		metrics.DBConnectionState.Set(0)
	}
}

// State returns the connection state.
func (s *Source) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsOpen reports whether a connection is held.
func (s *Source) IsOpen() bool {
	return s.State() == StateOpen
}

// Path returns the path of the current or last opened database, or "".
func (s *Source) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Origin implements source.Source.
func (s *Source) Origin() assettypes.Origin {
	return assettypes.OriginDatabase
}

// Count returns the number of rows in the files table.
func (s *Source) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, source.ErrNoConnection
	}

	start := time.Now()
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&n)
	recordQuery("count", start, err)
	return n, err
}

// recordQuery records metrics for a database query.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
