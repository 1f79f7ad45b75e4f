package searchindex

import (
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// Op is one operation in a Bulk call: either index a document (Doc
// non-nil) or delete by id (Doc nil).
type Op struct {
	ID  string
	Doc map[string]interface{}
}

// Bulk applies a slice of operations in batches bounded by MaxBatchSize and
// MaxBatchBytes, flushing a batch as soon as either bound is reached,
// mirroring the teacher's FullIndex/IncrementalIndex flushing loop.
func (a *Adapter) Bulk(ops []Op) (indexed, deleted int, err error) {
	now := time.Now()
	batch := a.index.NewBatch()
	batchBytes := 0
	batchCount := 0

	flush := func() error {
		if batchCount == 0 {
			return nil
		}
		if ferr := a.index.Batch(batch); ferr != nil {
			return errkind.New(errkind.BackendFailure, ferr)
		}
		batch = a.index.NewBatch()
		batchBytes = 0
		batchCount = 0
		return nil
	}

	for _, op := range ops {
		if op.Doc == nil {
			batch.Delete(op.ID)
			deleted++
			batchCount++
		} else {
			stamped := stampDoc(op.Doc, op.ID, now)
			if ierr := batch.Index(op.ID, stamped); ierr != nil {
				return indexed, deleted, errkind.New(errkind.BackendFailure, ierr)
			}
			indexed++
			batchCount++
			batchBytes += estimateSize(stamped)
		}

		if batchCount >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if ferr := flush(); ferr != nil {
				return indexed, deleted, ferr
			}
		}
	}

	if ferr := flush(); ferr != nil {
		return indexed, deleted, ferr
	}
	return indexed, deleted, nil
}

// estimateSize gives a rough byte count for a document's string-valued
// fields, enough to bound batch size without a full JSON encode per op.
func estimateSize(doc map[string]interface{}) int {
	n := 0
	for k, v := range doc {
		n += len(k)
		if s, ok := v.(string); ok {
			n += len(s)
		} else {
			n += 32
		}
	}
	return n
}
