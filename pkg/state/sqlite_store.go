package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	domain      TEXT    NOT NULL,
	name        TEXT    NOT NULL,
	snapshot_id TEXT    NOT NULL,
	etag        TEXT    NOT NULL,
	payload     BLOB    NOT NULL,
	extra       TEXT,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (domain, name)
);`

// SQLiteStore persists encoded documents in a single SQLite table. Save
// assigns a snapshot ID when the caller has none, stamps the sha256 ETag of
// the payload and rejects writes whose meta.ETag is stale.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Store[[]byte] = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: ping sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database path given to OpenSQLite.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, ref Ref) ([]byte, Meta, bool, error) {
	if err := ref.validate(); err != nil {
		return nil, Meta{}, false, err
	}

	var (
		payload   []byte
		meta      Meta
		extra     sql.NullString
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, etag, payload, extra, updated_at FROM snapshots WHERE domain = ? AND name = ?`,
		ref.Domain, ref.Name,
	).Scan(&meta.SnapshotID, &meta.ETag, &payload, &extra, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: load %q/%q: %w", ref.Domain, ref.Name, err)
	}

	meta.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &meta.Extra); err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode extra for %q/%q: %w", ref.Domain, ref.Name, err)
		}
	}
	return payload, meta, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ref Ref, snapshot []byte, meta Meta) (Meta, error) {
	if err := ref.validate(); err != nil {
		return Meta{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("state: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT etag FROM snapshots WHERE domain = ? AND name = ?`,
		ref.Domain, ref.Name,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = ""
	case err != nil:
		return Meta{}, fmt.Errorf("state: read etag for %q/%q: %w", ref.Domain, ref.Name, err)
	}
	if meta.ETag != "" && current != "" && meta.ETag != current {
		return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, current)
	}

	saved := cloneMeta(meta)
	if saved.SnapshotID == "" {
		saved.SnapshotID = uuid.New().String()
	}
	saved.ETag = ComputeETag(snapshot)
	saved.UpdatedAt = s.now().UTC()

	var extra sql.NullString
	if len(saved.Extra) > 0 {
		raw, err := json.Marshal(saved.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("state: encode extra: %w", err)
		}
		extra = sql.NullString{String: string(raw), Valid: true}
	}
	if snapshot == nil {
		snapshot = []byte{}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (domain, name, snapshot_id, etag, payload, extra, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (domain, name) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			etag        = excluded.etag,
			payload     = excluded.payload,
			extra       = excluded.extra,
			updated_at  = excluded.updated_at`,
		ref.Domain, ref.Name, saved.SnapshotID, saved.ETag, snapshot, extra, saved.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q/%q: %w", ref.Domain, ref.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return Meta{}, fmt.Errorf("state: commit transaction: %w", err)
	}
	return saved, nil
}

// Delete removes the snapshot for ref and reports whether one existed.
func (s *SQLiteStore) Delete(ctx context.Context, ref Ref) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE domain = ? AND name = ?`, ref.Domain, ref.Name)
	if err != nil {
		return false, fmt.Errorf("state: delete %q/%q: %w", ref.Domain, ref.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("state: delete %q/%q: %w", ref.Domain, ref.Name, err)
	}
	return n > 0, nil
}

// List returns the refs stored under domain ordered by name.
func (s *SQLiteStore) List(ctx context.Context, domain string) ([]Ref, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM snapshots WHERE domain = ? ORDER BY name`, domain)
	if err != nil {
		return nil, fmt.Errorf("state: list %q: %w", domain, err)
	}
	defer func() { _ = rows.Close() }()

	var refs []Ref
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("state: scan %q: %w", domain, err)
		}
		refs = append(refs, Ref{Domain: domain, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: list %q: %w", domain, err)
	}
	return refs, nil
}
