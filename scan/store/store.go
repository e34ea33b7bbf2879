// Package store persists completed scans in SQLite so they can be listed
// and re-analyzed without re-running the objective.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/luftscan/luftscan/scan"
)

// ErrNotFound indicates a scan ID with no stored scan.
var ErrNotFound = errors.New("store: scan not found")

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	scan_id          TEXT PRIMARY KEY,
	objective        TEXT NOT NULL,
	method           TEXT NOT NULL,
	samples          INTEGER NOT NULL,
	seed             INTEGER NOT NULL,
	succeeded        INTEGER NOT NULL,
	parameters_json  TEXT NOT NULL,
	observables_json TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_rows (
	scan_id          TEXT NOT NULL,
	row_index        INTEGER NOT NULL,
	parameters_json  TEXT NOT NULL,
	observables_json TEXT NOT NULL,
	success          INTEGER NOT NULL,
	error            TEXT,
	PRIMARY KEY (scan_id, row_index),
	FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE
);
`

// timeLayout is fixed-width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ScanMeta describes one stored scan.
type ScanMeta struct {
	ID        string
	Objective string
	Method    string
	Samples   int
	Seed      int64
	Succeeded int
	CreatedAt time.Time
}

// MetaFromSpec builds the metadata for a scan produced by spec.
func MetaFromSpec(spec *scan.ScanSpec) ScanMeta {
	return ScanMeta{
		Objective: spec.Objective,
		Method:    spec.Method,
		Samples:   spec.Samples,
		Seed:      spec.Seed,
	}
}

// Store manages scans in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// connPragmas run on every pooled connection the driver opens.
var connPragmas = []string{"foreign_keys(1)", "journal_mode(WAL)"}

// dsn appends connPragmas to path as _pragma query parameters.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores result in one transaction and returns the scan ID.
// A fresh UUID is assigned when meta.ID is empty.
func (s *Store) Save(ctx context.Context, meta ScanMeta, result *scan.ScanResult) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Succeeded = result.SuccessCount()

	paramsJSON, err := json.Marshal(result.Parameters)
	if err != nil {
		return "", fmt.Errorf("marshal parameter columns: %w", err)
	}
	obsJSON, err := json.Marshal(result.Observables)
	if err != nil {
		return "", fmt.Errorf("marshal observable columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (scan_id, objective, method, samples, seed, succeeded, parameters_json, observables_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Objective, meta.Method, meta.Samples, meta.Seed, meta.Succeeded,
		string(paramsJSON), string(obsJSON), meta.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scan_rows (scan_id, row_index, parameters_json, observables_json, success, error)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range result.Rows {
		pj, err := json.Marshal(r.Parameters)
		if err != nil {
			return "", fmt.Errorf("marshal row %d parameters: %w", i, err)
		}
		oj, err := json.Marshal(r.Observables)
		if err != nil {
			return "", fmt.Errorf("marshal row %d observables: %w", i, err)
		}
		var errText sql.NullString
		if r.Error != "" {
			errText = sql.NullString{String: r.Error, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, meta.ID, i, string(pj), string(oj), boolToInt(r.Success), errText); err != nil {
			return "", fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return meta.ID, nil
}

// List returns metadata for every stored scan, newest first.
func (s *Store) List(ctx context.Context) ([]ScanMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scan_id, objective, method, samples, seed, succeeded, created_at
		 FROM scans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]ScanMeta, 0)
	for rows.Next() {
		var m ScanMeta
		var created string
		if err := rows.Scan(&m.ID, &m.Objective, &m.Method, &m.Samples, &m.Seed, &m.Succeeded, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("scan %s created_at: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Load reads a stored scan back into a ScanResult.
func (s *Store) Load(ctx context.Context, id string) (ScanMeta, *scan.ScanResult, error) {
	var meta ScanMeta
	var created, paramsJSON, obsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT scan_id, objective, method, samples, seed, succeeded, parameters_json, observables_json, created_at
		 FROM scans WHERE scan_id = ?`, id,
	).Scan(&meta.ID, &meta.Objective, &meta.Method, &meta.Samples, &meta.Seed, &meta.Succeeded, &paramsJSON, &obsJSON, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanMeta{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return ScanMeta{}, nil, fmt.Errorf("get scan: %w", err)
	}
	if meta.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return ScanMeta{}, nil, fmt.Errorf("scan %s created_at: %w", id, err)
	}

	var params, observables []string
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return ScanMeta{}, nil, fmt.Errorf("unmarshal parameter columns: %w", err)
	}
	if err := json.Unmarshal([]byte(obsJSON), &observables); err != nil {
		return ScanMeta{}, nil, fmt.Errorf("unmarshal observable columns: %w", err)
	}
	result := scan.NewScanResult(params, observables)

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, parameters_json, observables_json, success, error
		 FROM scan_rows WHERE scan_id = ? ORDER BY row_index`, id)
	if err != nil {
		return ScanMeta{}, nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r scan.EvaluationResult
		var pj, oj string
		var success int
		var errText sql.NullString
		if err := rows.Scan(&r.Index, &pj, &oj, &success, &errText); err != nil {
			return ScanMeta{}, nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(pj), &r.Parameters); err != nil {
			return ScanMeta{}, nil, fmt.Errorf("unmarshal row %d parameters: %w", r.Index, err)
		}
		if err := json.Unmarshal([]byte(oj), &r.Observables); err != nil {
			return ScanMeta{}, nil, fmt.Errorf("unmarshal row %d observables: %w", r.Index, err)
		}
		r.Success = success != 0
		r.Error = errText.String
		result.Rows = append(result.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return ScanMeta{}, nil, err
	}
	return meta, result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
