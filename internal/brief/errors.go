// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"errors"
	"fmt"
)

// MissingInputError reports that the input document does not exist.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("no research paper at %s", e.Path)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// EmptyExtractionError reports that the document yielded no readable text,
// usually because it is a scan without a text layer.
type EmptyExtractionError struct {
	Path string
	Err  error
}

func (e *EmptyExtractionError) Error() string {
	return fmt.Sprintf("%s has no readable text (likely scanned)", e.Path)
}

func (e *EmptyExtractionError) Unwrap() error { return e.Err }

// EmptyChunkSetError reports that chunking produced nothing to index.
type EmptyChunkSetError struct {
	Path string
}

func (e *EmptyChunkSetError) Error() string {
	return fmt.Sprintf("no text chunks created from %s", e.Path)
}

// EmbeddingBackendError reports a failure to load the embedding model or to
// embed one input. Chunk is -1 when the failure is not tied to a chunk.
type EmbeddingBackendError struct {
	Backend string
	Chunk   int
	Err     error
}

func (e *EmbeddingBackendError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("embedding backend %s failed on chunk %d: %v", e.Backend, e.Chunk, e.Err)
	}
	return fmt.Sprintf("embedding backend %s failed: %v", e.Backend, e.Err)
}

func (e *EmbeddingBackendError) Unwrap() error { return e.Err }

// IndexBuildError reports that the vector index could not be built or
// queried.
type IndexBuildError struct {
	Err error
}

func (e *IndexBuildError) Error() string { return fmt.Sprintf("building vector index: %v", e.Err) }

func (e *IndexBuildError) Unwrap() error { return e.Err }

// ModelBackendError reports that the language model was unreachable,
// misconfigured, or returned an error.
type ModelBackendError struct {
	Model string
	Err   error
}

func (e *ModelBackendError) Error() string {
	return fmt.Sprintf("language model %s failed: %v", e.Model, e.Err)
}

func (e *ModelBackendError) Unwrap() error { return e.Err }

// Error kinds returned by Kind.
const (
	KindMissingInput     = "missing_input"
	KindEmptyExtraction  = "empty_extraction"
	KindEmptyChunkSet    = "empty_chunk_set"
	KindEmbeddingBackend = "embedding_backend"
	KindIndexBuild       = "index_build"
	KindModelBackend     = "model_backend"
)

// Kind returns the stable kind name of a pipeline error, or "" for errors
// outside the taxonomy.
func Kind(err error) string {
	var (
		missing *MissingInputError
		extract *EmptyExtractionError
		chunks  *EmptyChunkSetError
		embed   *EmbeddingBackendError
		index   *IndexBuildError
		model   *ModelBackendError
	)
	switch {
	case errors.As(err, &missing):
		return KindMissingInput
	case errors.As(err, &extract):
		return KindEmptyExtraction
	case errors.As(err, &chunks):
		return KindEmptyChunkSet
	case errors.As(err, &embed):
		return KindEmbeddingBackend
	case errors.As(err, &index):
		return KindIndexBuild
	case errors.As(err, &model):
		return KindModelBackend
	default:
		return ""
	}
}
