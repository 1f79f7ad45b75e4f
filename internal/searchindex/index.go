// Package searchindex adapts the bleve full-text engine into the storage
// surface the rest of the river needs: bulk indexing, scrolled search,
// single-document get/put/delete, and query-driven deletion, grounded on
// the teacher's own bleve-backed Indexer and its search-request building
// in tools_search.go.
package searchindex

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

const (
	// IndexSuffix names the on-disk directory bleve creates per index.
	IndexSuffix = ".bleve"

	// MaxBatchSize bounds documents per bleve batch flushed inside a Bulk
	// call, mirroring the teacher's own flush threshold in
	// gitrepos/indexer.go. A larger Bulk call is split into several batches.
	MaxBatchSize = 100
	// MaxBatchBytes bounds estimated bytes per flushed batch.
	MaxBatchBytes = 10 * 1024 * 1024

	// idField is the field bleve's own _id is mirrored into, so search
	// requests can retrieve a document's id as a stored field value
	// alongside its other fields.
	idField = "_id"
)

// Adapter wraps one bleve.Index open for read and write.
type Adapter struct {
	index bleve.Index
	path  string
}

// Open opens an existing index below baseDir/indexes, or creates one using
// a dynamic mapping (documents carry open-ended, operator-configured
// fields, so unlike the teacher's fixed CodeDocument mapping this index
// cannot declare its fields up front).
func Open(baseDir, name string) (*Adapter, error) {
	path := filepath.Join(baseDir, "indexes", name+IndexSuffix)

	idx, err := bleve.Open(path)
	if err == nil {
		return &Adapter{index: idx, path: path}, nil
	}

	idx, err = bleve.New(path, DefaultMapping())
	if err != nil {
		return nil, errkind.New(errkind.BackendFailure, fmt.Errorf("open index %s: %w", name, err))
	}
	return &Adapter{index: idx, path: path}, nil
}

// DefaultMapping builds an index mapping suited to documents whose exact
// field set is operator-configured: the default analyzer handles free text,
// the ingestion timestamp is mapped explicitly as a date so range deletion
// queries can use it, and the default project-key field "project_key" is a
// keyword field so the deletion query's exact term matches it. A project-key
// field configured under any other name is analyzed as free text.
func DefaultMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	ingestedField := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt(domain.FieldIngestedAt, ingestedField)

	projectKeyField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("project_key", projectKeyField)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Store = true
	idFieldMapping.Index = true
	docMapping.AddFieldMappingsAt(idField, idFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Close closes the underlying bleve index.
func (a *Adapter) Close() error {
	return a.index.Close()
}

// DocCount returns the number of documents currently indexed.
func (a *Adapter) DocCount() (uint64, error) {
	n, err := a.index.DocCount()
	if err != nil {
		return 0, errkind.New(errkind.BackendFailure, err)
	}
	return n, nil
}

// Put indexes a single document, stamping the ingestion timestamp and
// mirroring its id into the idField so Get can retrieve it again by a
// docID-bound search.
func (a *Adapter) Put(id string, doc map[string]interface{}) error {
	stamped := stampDoc(doc, id, time.Now())
	if err := a.index.Index(id, stamped); err != nil {
		return errkind.New(errkind.BackendFailure, err)
	}
	return nil
}

// Get retrieves every stored field of a single document by id. ok is false
// if no such document exists.
func (a *Adapter) Get(id string) (map[string]interface{}, bool, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Size = 1
	req.Fields = []string{"*"}

	result, err := a.index.Search(req)
	if err != nil {
		return nil, false, errkind.New(errkind.BackendFailure, err)
	}
	if len(result.Hits) == 0 {
		return nil, false, nil
	}
	return result.Hits[0].Fields, true, nil
}

// Delete removes a single document by id. Deleting a non-existent id is a
// no-op, matching bleve's own semantics.
func (a *Adapter) Delete(id string) error {
	if err := a.index.Delete(id); err != nil {
		return errkind.New(errkind.BackendFailure, err)
	}
	return nil
}

func stampDoc(doc map[string]interface{}, id string, at time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(doc)+2)
	for k, v := range doc {
		out[k] = v
	}
	out[domain.FieldIngestedAt] = at.UTC().Format(time.RFC3339)
	out[idField] = id
	return out
}
