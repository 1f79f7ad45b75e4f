package jiraclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

func TestChangedIssues_DecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"startAt": 0, "total": 1, "maxResults": 50,
			"issues": [{"key": "PROJ-1", "fields": {"updated": "2026-08-01T10:00:00.000+0000"}}]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", 5*time.Second)
	page, err := c.ChangedIssues(context.Background(), `project = PROJ`, "updated,project", 0, 50)
	if err != nil {
		t.Fatalf("ChangedIssues: %v", err)
	}
	if page.Total != 1 || len(page.Issues) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Issues[0]["key"] != "PROJ-1" {
		t.Errorf("issue key = %v", page.Issues[0]["key"])
	}
}

func TestNew_AddsBasicAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"startAt":0,"total":0,"maxResults":50,"issues":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bob", "secret", 5*time.Second)
	if _, err := c.ChangedIssues(context.Background(), "project = X", "", 0, 50); err != nil {
		t.Fatalf("ChangedIssues: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("bob:secret"))
	if gotAuth != want {
		t.Errorf("Authorization header = %q, want %q", gotAuth, want)
	}
}

func TestChangedIssues_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", 5*time.Second)
	_, err := c.ChangedIssues(context.Background(), "project = X", "", 0, 50)
	if !errkind.Is(err, errkind.UpstreamTransient) {
		t.Fatalf("expected UpstreamTransient, got %v", err)
	}
}

func TestChangedIssues_UnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", 5*time.Second)
	_, err := c.ChangedIssues(context.Background(), "project = X", "", 0, 50)
	if !errkind.Is(err, errkind.UpstreamFatal) {
		t.Fatalf("expected UpstreamFatal, got %v", err)
	}
}

func TestChangedIssues_MalformedJSONIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", 5*time.Second)
	_, err := c.ChangedIssues(context.Background(), "project = X", "", 0, 50)
	if !errkind.Is(err, errkind.UpstreamFatal) {
		t.Fatalf("expected UpstreamFatal, got %v", err)
	}
}

func TestProjectKeys_DecodesKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"key": "ORG"}, {"key": "OTHER"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", 5*time.Second)
	keys, err := c.ProjectKeys(context.Background())
	if err != nil {
		t.Fatalf("ProjectKeys: %v", err)
	}
	if strings.Join(keys, ",") != "ORG,OTHER" {
		t.Errorf("keys = %v", keys)
	}
}
