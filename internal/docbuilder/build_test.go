package docbuilder

import (
	"strings"
	"testing"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

func sampleIssue() domain.RawIssue {
	return domain.RawIssue{
		"key": "PROJ-42",
		"fields": map[string]interface{}{
			"summary": "Fix the thing",
			"updated": "2026-08-01T10:15:00.000+0000",
			"status":  map[string]interface{}{"name": "Open"},
			"description": "<p>Steps: <b>reproduce</b> then fix</p>",
			"assignee": map[string]interface{}{
				"displayName": "Ada Lovelace", "name": "ada", "emailAddress": "ada@example.org",
			},
			"comment": map[string]interface{}{
				"comments": []interface{}{
					map[string]interface{}{
						"id":      "1001",
						"body":    "looks good",
						"created": "2026-08-01T09:00:00.000+0000",
						"author":  map[string]interface{}{"displayName": "Bob", "name": "bob"},
					},
				},
			},
		},
	}
}

func TestIndexIssue_EmbeddedComments(t *testing.T) {
	cfg, err := NewConfig("river", "https://issues.example.org", nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	doc, standalone, err := cfg.IndexIssue("PROJ", sampleIssue())
	if err != nil {
		t.Fatalf("IndexIssue: %v", err)
	}
	if standalone != nil {
		t.Fatalf("embedded mode should not produce standalone comment docs, got %v", standalone)
	}
	if doc["issue_key"] != "PROJ-42" {
		t.Errorf("issue_key = %v", doc["issue_key"])
	}
	if doc["document_url"] != "https://issues.example.org/browse/PROJ-42" {
		t.Errorf("document_url = %v", doc["document_url"])
	}
	if doc["description"] != "<p>Steps: <b>reproduce</b> then fix</p>" {
		t.Errorf("expected raw description (HTML stripping runs before extraction, not here), got %q", doc["description"])
	}
	assignee, ok := doc["assignee"].(map[string]interface{})
	if !ok {
		t.Fatalf("assignee should be a filtered object, got %T", doc["assignee"])
	}
	if assignee["display_name"] != "Ada Lovelace" || assignee["email"] != "ada@example.org" {
		t.Errorf("assignee filter mismatch: %+v", assignee)
	}
	comments, ok := doc["comments"].([]domain.CommentDocument)
	if !ok || len(comments) != 1 {
		t.Fatalf("expected one embedded comment, got %v", doc["comments"])
	}
	if comments[0]["body"] != "looks good" {
		t.Errorf("comment body = %v", comments[0]["body"])
	}
}

func TestIndexIssue_StandaloneComments(t *testing.T) {
	cfg, err := NewConfig("river", "https://issues.example.org", map[string]interface{}{
		"comment_mode": "standalone",
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	doc, standalone, err := cfg.IndexIssue("PROJ", sampleIssue())
	if err != nil {
		t.Fatalf("IndexIssue: %v", err)
	}
	if _, present := doc["comments"]; present {
		t.Errorf("standalone mode should not embed comments in the issue doc")
	}
	if len(standalone) != 1 {
		t.Fatalf("expected one standalone comment doc, got %d", len(standalone))
	}
	if standalone[0]["comment_id"] != "1001" {
		t.Errorf("comment_id = %v", standalone[0]["comment_id"])
	}
	url, _ := standalone[0]["document_url"].(string)
	if !strings.Contains(url, "focusedCommentId=1001") {
		t.Errorf("expected focused comment url, got %q", url)
	}
}

func TestIndexIssue_ChildComments(t *testing.T) {
	cfg, err := NewConfig("river", "https://issues.example.org", map[string]interface{}{
		"comment_mode": "child",
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	doc, standalone, err := cfg.IndexIssue("PROJ", sampleIssue())
	if err != nil {
		t.Fatalf("IndexIssue: %v", err)
	}
	if doc[domain.FieldDocType] != domain.DocTypeIssue {
		t.Errorf("issue doc_type = %v, want %q", doc[domain.FieldDocType], domain.DocTypeIssue)
	}
	if _, present := doc["comments"]; present {
		t.Errorf("child mode should not embed comments in the issue doc")
	}
	if len(standalone) != 1 {
		t.Fatalf("expected one child comment doc, got %d", len(standalone))
	}
	if standalone[0]["comment_id"] != "1001" {
		t.Errorf("comment_id = %v", standalone[0]["comment_id"])
	}
	if standalone[0][domain.FieldDocType] != domain.DocTypeComment {
		t.Errorf("comment doc_type = %v, want %q", standalone[0][domain.FieldDocType], domain.DocTypeComment)
	}
	if standalone[0][domain.FieldParentKey] != "PROJ-42" {
		t.Errorf("parent_key = %v, want PROJ-42", standalone[0][domain.FieldParentKey])
	}
	if standalone[0][domain.FieldDocType] == doc[domain.FieldDocType] {
		t.Errorf("comment and issue doc types must differ, both got %v", doc[domain.FieldDocType])
	}
}

func TestIndexIssue_CommentModeNoneDropsComments(t *testing.T) {
	cfg, err := NewConfig("river", "https://issues.example.org", map[string]interface{}{
		"comment_mode": "none",
	})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	doc, standalone, err := cfg.IndexIssue("PROJ", sampleIssue())
	if err != nil {
		t.Fatalf("IndexIssue: %v", err)
	}
	if standalone != nil {
		t.Errorf("expected no standalone comments, got %v", standalone)
	}
	if _, present := doc["comments"]; present {
		t.Errorf("expected no embedded comments field")
	}
}

func TestIndexIssue_RejectsMissingKey(t *testing.T) {
	cfg, err := NewConfig("river", "https://x", nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	_, _, err = cfg.IndexIssue("PROJ", domain.RawIssue{"fields": map[string]interface{}{"updated": "now"}})
	if err == nil {
		t.Fatalf("expected an UpstreamFatal error for a missing key")
	}
}

func TestIndexIssue_RejectsMissingUpdated(t *testing.T) {
	cfg, err := NewConfig("river", "https://x", nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	_, _, err = cfg.IndexIssue("PROJ", domain.RawIssue{"key": "PROJ-1", "fields": map[string]interface{}{}})
	if err == nil {
		t.Fatalf("expected an UpstreamFatal error for a missing fields.updated")
	}
}
