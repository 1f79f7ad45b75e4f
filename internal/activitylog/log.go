// Package activitylog optionally persists a record of every indexing run
// (project, mode, result, timing, counts) to a private search index, the
// way the original's activity log index let operators audit river runs.
package activitylog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

// Backend is the subset of searchindex.Adapter activity logging needs.
type Backend interface {
	Put(id string, doc map[string]interface{}) error
}

// Writer appends ActivityLogRecord entries. A Writer with no backend
// (constructed with NewDisabled) drops every record, matching an operator
// leaving activity_log.index unset.
type Writer struct {
	backend Backend
	logger  *slog.Logger
}

// New returns a Writer that persists records to backend.
func New(backend Backend, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{backend: backend, logger: logger}
}

// NewDisabled returns a Writer whose Record calls are no-ops, for when
// activity_log.index is not configured.
func NewDisabled() *Writer {
	return &Writer{}
}

// Record persists rec. Failures are logged and swallowed: a broken
// activity log must never fail the indexing run it is merely reporting on.
func (w *Writer) Record(ctx context.Context, rec domain.ActivityLogRecord) {
	if w.backend == nil {
		return
	}
	doc := map[string]interface{}{
		"project_key":   rec.ProjectKey,
		"update_type":   string(rec.UpdateType),
		"result":        string(rec.Result),
		"start_date":    rec.StartDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"time_elapsed":  rec.TimeElapsedMs,
		"issues_updated": rec.IssuesUpdated,
		"issues_deleted": rec.IssuesDeleted,
	}
	if rec.ErrorMessage != "" {
		doc["error_message"] = rec.ErrorMessage
	}

	id := fmt.Sprintf("%s-%s", rec.ProjectKey, uuid.NewString())
	if err := w.backend.Put(id, doc); err != nil {
		w.logger.WarnContext(ctx, "activity log write failed", "project", rec.ProjectKey, "error", err)
	}
}
