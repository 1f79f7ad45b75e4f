package docbuilder

import (
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

// DeletionQuery describes the set of documents a DELETE_PASS should remove:
// every document for a project last touched before a bound date (documents
// whose ingestion watermark predates the current full run's start, meaning
// the upstream issue is gone or moved out of the project).
type DeletionQuery struct {
	ProjectKeyField string
	ProjectKey      string
	IngestedAtField string
	Before          time.Time
}

// NewDeletionQuery builds the DeletionQuery for one project's full-run
// delete pass, bound to this config's project-key field and the domain
// package's ingestion-timestamp field.
func (c *Config) NewDeletionQuery(projectKey string, before time.Time) DeletionQuery {
	return DeletionQuery{
		ProjectKeyField: c.FieldProjectKey,
		ProjectKey:      projectKey,
		IngestedAtField: domain.FieldIngestedAt,
		Before:          before,
	}
}
