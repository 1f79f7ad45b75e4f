package searchindex

import (
	"strconv"
	"testing"
)

func TestBulk_IndexesAndDeletes(t *testing.T) {
	a := openTestAdapter(t)

	if err := a.Put("keep-me", map[string]interface{}{"summary": "stays"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ops := []Op{
		{ID: "doc-1", Doc: map[string]interface{}{"summary": "one"}},
		{ID: "doc-2", Doc: map[string]interface{}{"summary": "two"}},
		{ID: "keep-me"},
	}
	indexed, deleted, err := a.Bulk(ops)
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if indexed != 2 || deleted != 1 {
		t.Errorf("indexed=%d deleted=%d, want 2,1", indexed, deleted)
	}

	if _, ok, _ := a.Get("keep-me"); ok {
		t.Errorf("expected keep-me to be deleted")
	}
	if _, ok, _ := a.Get("doc-1"); !ok {
		t.Errorf("expected doc-1 to be indexed")
	}
}

func TestBulk_FlushesAcrossBatchSizeBoundary(t *testing.T) {
	a := openTestAdapter(t)

	ops := make([]Op, 0, MaxBatchSize+10)
	for i := 0; i < MaxBatchSize+10; i++ {
		ops = append(ops, Op{ID: "doc-" + strconv.Itoa(i), Doc: map[string]interface{}{"n": i}})
	}
	indexed, _, err := a.Bulk(ops)
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if indexed != len(ops) {
		t.Errorf("indexed = %d, want %d", indexed, len(ops))
	}
	n, err := a.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if int(n) != len(ops) {
		t.Errorf("DocCount = %d, want %d", n, len(ops))
	}
}
