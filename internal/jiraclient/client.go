// Package jiraclient talks to the upstream issue tracker's REST API:
// paginated JQL search for changed issues and project discovery.
package jiraclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// Client is a thin REST client over the upstream tracker's search and
// project endpoints. It has no retry logic: a transient upstream failure
// fails the current indexing run outright, and the coordinator's next tick
// is the only retry. Auth is layered on top via basicAuthTransport, the way
// the teacher layers auth middleware around a plain http.Handler.
type Client struct {
	urlBase string
	http    *http.Client
}

// New builds a Client against urlBase, applying HTTP Basic Auth when
// username is non-empty and using timeout as the per-request deadline.
func New(urlBase, username, password string, timeout time.Duration) *Client {
	transport := http.DefaultTransport
	if username != "" {
		transport = &basicAuthTransport{username: username, password: password, next: transport}
	}
	return &Client{
		urlBase: urlBase,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// basicAuthTransport decorates every outgoing request with HTTP Basic Auth,
// the client-side analogue of the teacher's server-side basicAuthMiddleware.
type basicAuthTransport struct {
	username string
	password string
	next     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.SetBasicAuth(t.username, t.password)
	return t.next.RoundTrip(cloned)
}

// SearchPage is one page of the JQL search results endpoint.
type SearchPage struct {
	StartAt    int
	Total      int
	MaxResults int
	Issues     []domain.RawIssue
}

// ChangedIssues runs jql against /rest/api/2/search, requesting fields and
// paginating from startAt for at most maxResults issues.
func (c *Client) ChangedIssues(ctx context.Context, jql string, fields string, startAt, maxResults int) (SearchPage, error) {
	u := fmt.Sprintf("%s/rest/api/2/search", c.urlBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return SearchPage{}, errkind.New(errkind.UpstreamFatal, err)
	}
	q := req.URL.Query()
	q.Set("jql", jql)
	q.Set("startAt", fmt.Sprintf("%d", startAt))
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	if fields != "" {
		q.Set("fields", fields)
	}
	req.URL.RawQuery = q.Encode()

	body, err := c.do(req)
	if err != nil {
		return SearchPage{}, err
	}

	var raw struct {
		StartAt    int                 `json:"startAt"`
		Total      int                 `json:"total"`
		MaxResults int                 `json:"maxResults"`
		Issues     []domain.RawIssue   `json:"issues"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return SearchPage{}, errkind.New(errkind.UpstreamFatal, fmt.Errorf("decode search response: %w", err))
	}

	return SearchPage{
		StartAt:    raw.StartAt,
		Total:      raw.Total,
		MaxResults: raw.MaxResults,
		Issues:     raw.Issues,
	}, nil
}

// ProjectKeys lists every project key visible to the configured
// credentials via /rest/api/2/project.
func (c *Client) ProjectKeys(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/rest/api/2/project", c.urlBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errkind.New(errkind.UpstreamFatal, err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errkind.New(errkind.UpstreamFatal, fmt.Errorf("decode project list: %w", err))
	}

	keys := make([]string, 0, len(raw))
	for _, p := range raw {
		if p.Key != "" {
			keys = append(keys, p.Key)
		}
	}
	return keys, nil
}

// do executes req and classifies failures into errkind categories: network
// errors and 5xx responses are transient (worth retrying), 4xx responses
// other than throttling are fatal (retrying won't help).
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, errkind.New(errkind.Cancellation, req.Context().Err())
		}
		return nil, errkind.New(errkind.UpstreamTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.New(errkind.UpstreamTransient, fmt.Errorf("read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, errkind.Newf(errkind.UpstreamTransient, "upstream returned %d: %s", resp.StatusCode, truncate(body, 256))
	default:
		return nil, errkind.Newf(errkind.UpstreamFatal, "upstream returned %d: %s", resp.StatusCode, truncate(body, 256))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
