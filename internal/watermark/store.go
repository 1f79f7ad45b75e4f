// Package watermark persists the per-project, per-property progress marks
// (the indexer stores one, the last indexed issue update date) that let
// incremental runs resume where the last run left off.
package watermark

import (
	"context"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// Backend is the subset of searchindex.Adapter watermark storage needs,
// kept as an interface so tests can substitute an in-memory fake instead of
// standing up a real bleve index for every watermark scenario.
type Backend interface {
	Get(id string) (map[string]interface{}, bool, error)
	Put(id string, doc map[string]interface{}) error
	Delete(id string) error
	Refresh() error
}

// Store reads and writes datetime watermarks in a private index, one
// document per project/property pair, document id "_" + property +
// "_" + project mirroring the original's private-index watermark keying.
type Store struct {
	backend Backend
}

// New wraps backend as a watermark Store.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

const valueField = "value"

func docID(property, projectKey string) string {
	return "_" + property + "_" + projectKey
}

// ReadDatetimeValue returns the last stored watermark for
// (projectKey, property). ok is false if no watermark has ever been
// written, which callers treat as "run a full index".
func (s *Store) ReadDatetimeValue(ctx context.Context, projectKey, property string) (time.Time, bool, error) {
	if err := s.backend.Refresh(); err != nil {
		return time.Time{}, false, err
	}
	fields, ok, err := s.backend.Get(docID(property, projectKey))
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok {
		return time.Time{}, false, nil
	}
	raw, _ := fields[valueField].(string)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, errkind.New(errkind.DataShape, err)
	}
	return t, true, nil
}

// StoreDatetimeValue persists value, truncated to the minute, as the
// current watermark for (projectKey, property). The tracker's own "updated"
// comparisons are minute-resolution, so the stored watermark must match that
// resolution rather than carry sub-minute precision that only happens to be
// masked when the next JQL query truncates it again.
func (s *Store) StoreDatetimeValue(ctx context.Context, projectKey, property string, value time.Time) error {
	doc := map[string]interface{}{
		"projectKey":   projectKey,
		"propertyName": property,
		valueField:     value.Truncate(time.Minute).UTC().Format(time.RFC3339),
	}
	return s.backend.Put(docID(property, projectKey), doc)
}

// DeleteDatetimeValue removes the watermark for (projectKey, property),
// forcing the next run for that project to start from scratch.
func (s *Store) DeleteDatetimeValue(ctx context.Context, projectKey, property string) error {
	return s.backend.Delete(docID(property, projectKey))
}
