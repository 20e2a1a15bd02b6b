// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-brief/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes every brief matching opts, with sources, to w as a YAML
// sequence.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	briefs, err := s.exportBriefs(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(briefs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every brief matching opts, with sources, to w as an
// indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	briefs, err := s.exportBriefs(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(briefs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportBriefs(ctx context.Context, opts QueryOptions) ([]types.Brief, error) {
	if opts.Limit <= 0 {
		opts.Limit = exportLimit
	}
	listed, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	out := make([]types.Brief, 0, len(listed))
	for _, b := range listed {
		full, err := s.Get(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("loading brief %s: %w", b.ID, err)
		}
		out = append(out, *full)
	}
	return out, nil
}
