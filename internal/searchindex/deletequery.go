package searchindex

import (
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Igneous/elasticsearch-river-jira/internal/docbuilder"
	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// ToQuery translates a docbuilder.DeletionQuery into the conjunction of a
// project-key term match and an ingested-before date range, the same
// must-clause shape the teacher's buildQuery uses to combine a repository
// filter with a content query.
func ToQuery(d docbuilder.DeletionQuery) query.Query {
	projectQuery := bleve.NewTermQuery(d.ProjectKey)
	projectQuery.SetField(d.ProjectKeyField)

	end := d.Before
	dateQuery := bleve.NewDateRangeQuery(time.Time{}, end)
	dateQuery.SetField(d.IngestedAtField)

	return bleve.NewConjunctionQuery(projectQuery, dateQuery)
}

// DeleteByQuery scrolls every match of q, bounded by a generous page size,
// and deletes them all in batches via Bulk. Returns the number of documents
// deleted.
func (a *Adapter) DeleteByQuery(q query.Query) (int, error) {
	const pageSize = 500
	deleted := 0
	for {
		page, err := a.ScrollSearch(q, 0, pageSize)
		if err != nil {
			return deleted, err
		}
		if len(page.Hits) == 0 {
			return deleted, nil
		}
		ops := make([]Op, 0, len(page.Hits))
		for _, hit := range page.Hits {
			id, _ := hit[idField].(string)
			if id == "" {
				continue
			}
			ops = append(ops, Op{ID: id})
		}
		if _, _, err := a.Bulk(ops); err != nil {
			return deleted, errkind.New(errkind.BackendFailure, err)
		}
		deleted += len(ops)
		if len(page.Hits) < pageSize {
			return deleted, nil
		}
	}
}
