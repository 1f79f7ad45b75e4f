package searchindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// Page is one page of a scrolled search: the stored fields of each hit, its
// id, and the total number of matches across the whole scroll.
type Page struct {
	Hits  []map[string]interface{}
	Total uint64
}

// ScrollSearch runs q paginated by From/Size, requesting every stored field
// for each hit, grounded on the teacher's own search-request construction
// in gitrepos/tools_search.go.
func (a *Adapter) ScrollSearch(q query.Query, from, size int) (Page, error) {
	req := bleve.NewSearchRequest(q)
	req.From = from
	req.Size = size
	req.Fields = []string{"*"}

	result, err := a.index.Search(req)
	if err != nil {
		return Page{}, errkind.New(errkind.BackendFailure, err)
	}

	hits := make([]map[string]interface{}, 0, len(result.Hits))
	for _, hit := range result.Hits {
		fields := hit.Fields
		if fields == nil {
			fields = map[string]interface{}{}
		}
		fields[idField] = hit.ID
		hits = append(hits, fields)
	}
	return Page{Hits: hits, Total: result.Total}, nil
}

// Refresh is a documented no-op: bleve's writes are visible to readers of
// the same index handle immediately, unlike a remote search cluster that
// needs an explicit refresh before a just-written document is searchable.
func (a *Adapter) Refresh() error {
	return nil
}
