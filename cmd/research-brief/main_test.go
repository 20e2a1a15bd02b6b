// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/internal/brief"
	"github.com/pdiddy/research-brief/pkg/types"
)

// --- config ---

func TestPipelineConfig_Defaults(t *testing.T) {
	v := viper.New()
	configure(v)

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func TestPipelineConfig_Environment(t *testing.T) {
	t.Setenv("RESEARCH_BRIEF_CHUNK_SIZE", "800")
	t.Setenv("RESEARCH_BRIEF_LLM_MODEL", "claude-sonnet-4-5")
	t.Setenv("RESEARCH_BRIEF_REQUEST_TIMEOUT", "30s")
	t.Setenv("RESEARCH_BRIEF_EMBEDDER", "tfidf")

	v := viper.New()
	configure(v)

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, types.EmbedderTFIDF, cfg.Embedder)
	assert.Equal(t, types.DefaultChunkOverlap, cfg.ChunkOverlap)
}

func TestPipelineConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research-brief.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 600\nchunk_overlap: 60\ntop_k: 2\nmetric: l2\n"), 0o644))

	v := viper.New()
	configure(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.ChunkSize)
	assert.Equal(t, 60, cfg.ChunkOverlap)
	assert.Equal(t, 2, cfg.TopK)
	assert.Equal(t, types.MetricL2, cfg.Metric)
}

func TestPipelineConfig_Invalid(t *testing.T) {
	v := viper.New()
	configure(v)
	v.Set("chunk_size", 100)
	v.Set("chunk_overlap", 100)

	_, err := pipelineConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ChunkOverlap")
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotenv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RESEARCH_BRIEF_DOTENV_CHECK=loaded\n"), 0o644))
	t.Setenv("RESEARCH_BRIEF_DOTENV_CHECK", "")
	os.Unsetenv("RESEARCH_BRIEF_DOTENV_CHECK")

	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "loaded", os.Getenv("RESEARCH_BRIEF_DOTENV_CHECK"))
}

// --- commands ---

type fakeRunner struct {
	brief *types.Brief
	err   error
	path  string
}

func (f *fakeRunner) Run(_ context.Context, path string) (*types.Brief, error) {
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	b := *f.brief
	b.Document = path
	return &b, nil
}

func stubPipeline(t *testing.T, r runner) {
	t.Helper()
	orig := newPipeline
	newPipeline = func(types.PipelineConfig, ...brief.Option) (runner, error) { return r, nil }
	t.Cleanup(func() { newPipeline = orig })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func sampleBrief() *types.Brief {
	return &types.Brief{
		Query:          types.SummaryQuery,
		Answer:         "Research objective: measure things.\nMethodology: careful.",
		LLMModel:       "llama3",
		EmbeddingModel: "tfidf",
		Sources: []types.ScoredChunk{
			{Chunk: types.Chunk{Index: 0, Text: "We measure things.", Start: 0, End: 18}, Score: 0.9},
		},
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "research-brief dev\n", out)
}

func TestConfigCommand(t *testing.T) {
	out, _, err := execute(t, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "chunk_size: 1500\n")
	assert.Contains(t, out, "chunk_overlap: 150\n")
	assert.Contains(t, out, "llm_model: llama3\n")
	assert.Contains(t, out, "request_timeout: 5m0s\n")
	assert.NotContains(t, out, "300000000000")
}

func TestRunCommand_JSON(t *testing.T) {
	fake := &fakeRunner{brief: sampleBrief()}
	stubPipeline(t, fake)

	out, _, err := execute(t, "run", "--plain", "--format", "json", "--archive=false", "papers/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "papers/x.pdf", fake.path)

	var got types.Brief
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "papers/x.pdf", got.Document)
	assert.Contains(t, got.Answer, "Research objective")
}

func TestRunCommand_DefaultPath(t *testing.T) {
	fake := &fakeRunner{brief: sampleBrief()}
	stubPipeline(t, fake)

	_, _, err := execute(t, "run", "--plain", "--format", "markdown", "--archive=false")
	require.NoError(t, err)
	assert.Equal(t, defaultPaper, fake.path)
}

func TestRunCommand_MissingInputHint(t *testing.T) {
	fake := &fakeRunner{err: &brief.MissingInputError{Path: defaultPaper}}
	stubPipeline(t, fake)

	_, stderr, err := execute(t, "run", "--plain", "--format", "markdown", "--archive=false")
	require.Error(t, err)
	assert.Equal(t, brief.KindMissingInput, brief.Kind(err))
	assert.Contains(t, stderr, "Add paper.pdf to the data/ folder")
}

func TestRunCommand_BadFormat(t *testing.T) {
	stubPipeline(t, &fakeRunner{brief: sampleBrief()})

	_, _, err := execute(t, "run", "--plain", "--format", "docx", "--archive=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRunCommand_ArchiveAndHistory(t *testing.T) {
	stubPipeline(t, &fakeRunner{brief: sampleBrief()})
	dir := t.TempDir()
	outFile := filepath.Join(dir, "brief.md")
	pdfFile := filepath.Join(dir, "brief.pdf")

	_, _, err := execute(t, "--archive-dir="+dir, "run", "--plain", "--format", "markdown",
		"--archive", "--out", outFile, "--pdf", pdfFile, "paper.pdf")
	require.NoError(t, err)

	md, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Research Brief")

	pdfData, err := os.ReadFile(pdfFile)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfData, []byte("%PDF")))

	list, _, err := execute(t, "--archive-dir="+dir, "history", "list", "--json")
	require.NoError(t, err)
	var briefs []types.Brief
	require.NoError(t, json.Unmarshal([]byte(list), &briefs))
	require.Len(t, briefs, 1)
	id := briefs[0].ID
	assert.NotEmpty(t, id)

	shown, _, err := execute(t, "--archive-dir="+dir, "history", "show", id, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, shown, "Methodology: careful.")

	exported, _, err := execute(t, "--archive-dir="+dir, "history", "export", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, exported, "We measure things.")

	_, _, err = execute(t, "--archive-dir="+dir, "history", "delete", id)
	require.NoError(t, err)

	empty, _, err := execute(t, "--archive-dir="+dir, "history", "list", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, empty, "No briefs archived.")
}

func TestFormatHistoryList(t *testing.T) {
	b := *sampleBrief()
	b.ID = "20260301-100000-abcd1234"
	b.Document = "data/paper.pdf"

	var buf bytes.Buffer
	require.NoError(t, formatHistoryList(&buf, []types.Brief{b}, false))
	out := buf.String()
	assert.Contains(t, out, "20260301-100000-abcd1234")
	assert.Contains(t, out, "paper.pdf")
	assert.Contains(t, out, "Research objective: measure things.")
	assert.NotContains(t, out, "Methodology")
	assert.Contains(t, out, "1 briefs")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is far too long", 10, "this is..."},
		{"ünïcödé-text", 8, "ünïcö..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}
