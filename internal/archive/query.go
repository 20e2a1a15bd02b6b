// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-brief/pkg/types"
)

const defaultLimit = 20

// QueryOptions filters List and the exports.
type QueryOptions struct {
	// Match is a full-text query over answers and document names.
	Match string

	// Document restricts results to one source document path.
	Document string

	// Limit caps the result count. Zero uses the default of 20.
	Limit int
}

// List returns archived briefs without their sources. Full-text queries are
// ranked by relevance; otherwise the newest brief comes first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.Brief, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Match != "" && s.fts
	)

	const cols = `b.id, b.document, b.query, b.answer, b.llm_model, b.embedding_model, b.stats, b.created_at`
	if useFTS {
		qb.WriteString(`SELECT ` + cols + `
			FROM briefs_fts
			JOIN briefs b ON b.rowid = briefs_fts.rowid
			WHERE briefs_fts MATCH ?`)
		args = append(args, opts.Match)
	} else {
		qb.WriteString(`SELECT ` + cols + ` FROM briefs b WHERE 1=1`)
		if opts.Match != "" {
			qb.WriteString(` AND (b.answer LIKE ? OR b.document LIKE ?)`)
			like := "%" + opts.Match + "%"
			args = append(args, like, like)
		}
	}

	if opts.Document != "" {
		qb.WriteString(` AND b.document = ?`)
		args = append(args, opts.Document)
	}

	if useFTS {
		qb.WriteString(` ORDER BY briefs_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY b.created_at DESC, b.rowid DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var out []types.Brief
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Get returns one brief with its sources in rank order.
func (s *Store) Get(ctx context.Context, id string) (*types.Brief, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document, query, answer, llm_model, embedding_model, stats, created_at
		 FROM briefs WHERE id = ?`, id)
	b, err := scanBrief(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, start_offset, end_offset, score, text
		 FROM sources WHERE brief_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc types.ScoredChunk
		if err := rows.Scan(&sc.Index, &sc.Start, &sc.End, &sc.Score, &sc.Text); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		b.Sources = append(b.Sources, sc)
	}
	return b, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBrief(row scanner) (*types.Brief, error) {
	var (
		b          types.Brief
		llmModel   sql.NullString
		embedModel sql.NullString
		statsJSON  sql.NullString
		createdAt  string
	)
	if err := row.Scan(&b.ID, &b.Document, &b.Query, &b.Answer, &llmModel, &embedModel, &statsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning brief: %w", err)
	}
	b.LLMModel = llmModel.String
	b.EmbeddingModel = embedModel.String
	if statsJSON.Valid && statsJSON.String != "" {
		if err := json.Unmarshal([]byte(statsJSON.String), &b.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats of brief %s: %w", b.ID, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at of brief %s: %w", b.ID, err)
	}
	b.GeneratedAt = t
	return &b, nil
}
