// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps finished research briefs in a SQLite database so
// earlier runs can be listed, searched, and exported. Only briefs are stored;
// the vector index of a run is never persisted.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-brief/pkg/types"
)

const dbFile = "briefs.db"

// ErrNotFound is returned by Get for an unknown brief ID.
var ErrNotFound = errors.New("brief not found")

// Store is the brief archive.
type Store struct {
	db  *sql.DB
	dir string

	// fts reports whether the FTS5 module is available. Without it, search
	// falls back to substring matching.
	fts bool
}

// Open opens or creates dir/briefs.db and its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return filepath.Join(s.dir, dbFile) }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS briefs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL,
			query TEXT NOT NULL,
			answer TEXT NOT NULL,
			llm_model TEXT,
			embedding_model TEXT,
			stats TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			brief_id TEXT NOT NULL REFERENCES briefs(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			start_offset INTEGER,
			end_offset INTEGER,
			score REAL,
			text TEXT NOT NULL,
			PRIMARY KEY (brief_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_document ON briefs(document)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_created_at ON briefs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='briefs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists > 0 {
		// The table may come from a build with FTS5 while this one lacks it.
		// Its triggers would then fail every insert, so drop them and search
		// by substring until an FTS5 build reopens the archive.
		if _, err := s.db.Exec(`SELECT 1 FROM briefs_fts LIMIT 0`); err != nil {
			if !isNoModule(err) {
				return fmt.Errorf("checking FTS table: %w", err)
			}
			for _, name := range ftsTriggers {
				if _, err := s.db.Exec(`DROP TRIGGER IF EXISTS ` + name); err != nil {
					return fmt.Errorf("dropping trigger %s: %w", name, err)
				}
			}
			return nil
		}
	} else {
		if _, err := s.db.Exec(`CREATE VIRTUAL TABLE briefs_fts USING fts5(answer, document, content=briefs, content_rowid=rowid)`); err != nil {
			if isNoModule(err) {
				return nil
			}
			return fmt.Errorf("creating FTS table: %w", err)
		}
	}

	var triggers int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='trigger' AND name IN ('briefs_ai', 'briefs_ad')`,
	).Scan(&triggers); err != nil {
		return fmt.Errorf("checking FTS triggers: %w", err)
	}
	if triggers < len(ftsTriggers) {
		stmts := []string{
			`CREATE TRIGGER IF NOT EXISTS briefs_ai AFTER INSERT ON briefs BEGIN
				INSERT INTO briefs_fts(rowid, answer, document) VALUES (new.rowid, new.answer, new.document);
			END`,
			`CREATE TRIGGER IF NOT EXISTS briefs_ad AFTER DELETE ON briefs BEGIN
				INSERT INTO briefs_fts(briefs_fts, rowid, answer, document) VALUES('delete', old.rowid, old.answer, old.document);
			END`,
			// Briefs written while the triggers were missing are not indexed yet.
			`INSERT INTO briefs_fts(briefs_fts) VALUES('rebuild')`,
		}
		for _, stmt := range stmts {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	s.fts = true
	return nil
}

// ftsTriggers keep briefs_fts in sync with briefs.
var ftsTriggers = []string{"briefs_ai", "briefs_ad"}

// isNoModule reports whether err comes from a SQLite build without the
// module a virtual table needs.
func isNoModule(err error) bool {
	return strings.Contains(err.Error(), "no such module")
}

// Save stores b and its sources, assigning b.ID when it is empty.
func (s *Store) Save(ctx context.Context, b *types.Brief) error {
	if b == nil {
		return errors.New("nil brief")
	}
	if b.GeneratedAt.IsZero() {
		b.GeneratedAt = time.Now().UTC()
	}
	if b.ID == "" {
		b.ID = briefID(b)
	}

	statsJSON, err := json.Marshal(b.Stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO briefs (id, document, query, answer, llm_model, embedding_model, stats, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Document, b.Query, b.Answer, b.LLMModel, b.EmbeddingModel,
		string(statsJSON), b.GeneratedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting brief %s: %w", b.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sources (brief_id, rank, chunk_index, start_offset, end_offset, score, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for rank, src := range b.Sources {
		if _, err := stmt.ExecContext(ctx, b.ID, rank, src.Index, src.Start, src.End, src.Score, src.Text); err != nil {
			return fmt.Errorf("inserting source %d: %w", rank, err)
		}
	}

	return tx.Commit()
}

// Delete removes a brief and its sources.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM briefs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting brief %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// briefID derives a sortable identifier from the generation time and a
// random suffix.
func briefID(b *types.Brief) string {
	return b.GeneratedAt.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
