package searchindex

import (
	"testing"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/docbuilder"
)

func TestDeleteByQuery_RemovesMatchesOnly(t *testing.T) {
	a := openTestAdapter(t)

	if err := a.Put("proj-a-1", map[string]interface{}{"project_key": "PROJA"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := a.Put("proj-a-2", map[string]interface{}{"project_key": "PROJA"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := a.Put("proj-b-1", map[string]interface{}{"project_key": "PROJB"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	dq := docbuilder.DeletionQuery{
		ProjectKeyField: "project_key",
		ProjectKey:      "PROJA",
		IngestedAtField: "_ingested_at",
		Before:          time.Now().Add(time.Hour),
	}

	deleted, err := a.DeleteByQuery(ToQuery(dq))
	if err != nil {
		t.Fatalf("DeleteByQuery: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	if _, ok, _ := a.Get("proj-b-1"); !ok {
		t.Errorf("expected proj-b-1 to survive the delete pass")
	}
	if _, ok, _ := a.Get("proj-a-1"); ok {
		t.Errorf("expected proj-a-1 to be deleted")
	}
}

func TestDeleteByQuery_DateBoundExcludesRecentDocs(t *testing.T) {
	a := openTestAdapter(t)

	if err := a.Put("proj-a-1", map[string]interface{}{"project_key": "PROJA"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	dq := docbuilder.DeletionQuery{
		ProjectKeyField: "project_key",
		ProjectKey:      "PROJA",
		IngestedAtField: "_ingested_at",
		Before:          time.Now().Add(-time.Hour),
	}

	deleted, err := a.DeleteByQuery(ToQuery(dq))
	if err != nil {
		t.Fatalf("DeleteByQuery: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0 since the document was ingested after the bound", deleted)
	}
}
