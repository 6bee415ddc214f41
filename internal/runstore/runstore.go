// Package runstore persists one diagnostic record per pipeline run: which
// image was processed, with what removal parameters, what the background
// profiler concluded, and how long it took. These are operational records
// for the runs command and the report tool, not user content.
package runstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plateworks/cleanplate/internal/bgprofile"
	"github.com/plateworks/cleanplate/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyRetries and busyBackoff govern retry on SQLITE_BUSY, which modernc
// surfaces as a plain error string when two handles contend.
const (
	busyRetries = 5
	busyBackoff = 50 * time.Millisecond
)

// warningSeparator joins warning lines into the single TEXT column.
const warningSeparator = "\n"

// Run is one recorded pipeline run.
type Run struct {
	RunID           string            `json:"run_id"`
	ImageRef        string            `json:"image_ref"`
	Strategy        string            `json:"strategy"`
	DilateRadius    int               `json:"dilate_radius"`
	DiffusionRadius int               `json:"diffusion_radius"`
	Verdict         bgprofile.Verdict `json:"verdict"`
	SpriteCount     int               `json:"sprite_count"`
	Warnings        []string          `json:"warnings,omitempty"`
	DurationMs      int64             `json:"duration_ms"`
	CreatedAt       int64             `json:"created_at"` // unix seconds
}

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the runs database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	// A single writer keeps modernc's lock contention manageable.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies every pending embedded migration.
func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, _, _ := m.Version()
	monitoring.Logf("[store] run store schema at version %d", version)
	return nil
}

// Record inserts a run. A missing RunID gets a fresh UUID; a missing
// CreatedAt gets the current time.
func (s *Store) Record(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().Unix()
	}
	uniform := 0
	if run.Verdict.Uniform {
		uniform = 1
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO pipeline_runs (
				run_id, image_ref, strategy, dilate_radius, diffusion_radius,
				verdict_r, verdict_g, verdict_b, verdict_uniform, verdict_variance,
				sprite_count, warning_count, warnings, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.ImageRef, run.Strategy, run.DilateRadius, run.DiffusionRadius,
			run.Verdict.Color.R, run.Verdict.Color.G, run.Verdict.Color.B, uniform, run.Verdict.Variance,
			run.SpriteCount, len(run.Warnings), nullJoined(run.Warnings), run.DurationMs, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// Get returns one run by id, or sql.ErrNoRows.
func (s *Store) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, image_ref, strategy, dilate_radius, diffusion_radius,
		       verdict_r, verdict_g, verdict_b, verdict_uniform, verdict_variance,
		       sprite_count, warnings, duration_ms, created_at
		FROM pipeline_runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT run_id, image_ref, strategy, dilate_radius, diffusion_radius,
		       verdict_r, verdict_g, verdict_b, verdict_uniform, verdict_variance,
		       sprite_count, warnings, duration_ms, created_at
		FROM pipeline_runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune deletes runs older than the cutoff and returns how many went.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM pipeline_runs WHERE created_at < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	r := &Run{}
	var uniform int
	var warnings sql.NullString
	err := row.Scan(
		&r.RunID, &r.ImageRef, &r.Strategy, &r.DilateRadius, &r.DiffusionRadius,
		&r.Verdict.Color.R, &r.Verdict.Color.G, &r.Verdict.Color.B, &uniform, &r.Verdict.Variance,
		&r.SpriteCount, &warnings, &r.DurationMs, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Verdict.Uniform = uniform != 0
	if warnings.Valid && warnings.String != "" {
		r.Warnings = strings.Split(warnings.String, warningSeparator)
	}
	return r, nil
}

func nullJoined(ss []string) interface{} {
	if len(ss) == 0 {
		return nil
	}
	return strings.Join(ss, warningSeparator)
}

// retryOnBusy retries fn when SQLite reports lock contention.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(busyBackoff * time.Duration(attempt+1))
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
