// Package projectindexer runs exactly one indexing pass for one project: it
// reads the project's watermark, pulls changed issues from upstream page by
// page, writes index and comment documents, advances the watermark, and —
// for a full run — sweeps deleted documents belonging to issues that no
// longer exist upstream. Run is a plain function, not a long-lived
// goroutine; the coordinator dispatches one call per (project, mode) task.
package projectindexer

import (
	"context"
	"fmt"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/docbuilder"
	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
	"github.com/Igneous/elasticsearch-river-jira/internal/jiraclient"
	"github.com/Igneous/elasticsearch-river-jira/internal/searchindex"
	"github.com/blevesearch/bleve/v2/search/query"
)

// watermarkProperty is the single watermark property this indexer tracks:
// the upstream "updated" timestamp of the most recently pulled issue.
const watermarkProperty = "lastIndexedIssueUpdateDate"

// livelockBumpDuration is the forced watermark advance applied when a run
// makes progress but its final lastUpdated lands exactly back on the
// initial watermark, preserved at >= 60s per the source's own 64*1000ms
// guard (open question: whether 60s was the intended value; 64s kept).
const livelockBumpDuration = 64 * time.Second

// defaultPageSize is used when Deps.MaxIssuesPerRequest is unset.
const defaultPageSize = 50

// Upstream is the subset of jiraclient's API a run needs to pull changed
// issues. Satisfied by jiraclient.Client; a transient failure here fails the
// run immediately, with no retry inside the run itself — the coordinator's
// next tick is the retry.
type Upstream interface {
	ChangedIssues(ctx context.Context, jql, fields string, startAt, maxResults int) (jiraclient.SearchPage, error)
}

// Watermarks is the subset of watermark.Store a run needs.
type Watermarks interface {
	ReadDatetimeValue(ctx context.Context, projectKey, property string) (time.Time, bool, error)
	StoreDatetimeValue(ctx context.Context, projectKey, property string, value time.Time) error
}

// Index is the subset of searchindex.Adapter a run needs.
type Index interface {
	Bulk(ops []searchindex.Op) (indexed, deleted int, err error)
	Refresh() error
	DeleteByQuery(q query.Query) (int, error)
}

// Builder is the subset of docbuilder.Config a run needs.
type Builder interface {
	IndexIssue(projectKey string, issue domain.RawIssue) (domain.IndexDocument, []domain.CommentDocument, error)
	NewDeletionQuery(projectKey string, before time.Time) docbuilder.DeletionQuery
	RequiredFields() string
	PreprocessorChain() []docbuilder.Preprocessor
}

// Deps bundles one run's collaborators. JQLTimeZone and MaxIssuesPerRequest
// mirror jira.jql_time_zone and jira.max_issues_per_request.
type Deps struct {
	Upstream            Upstream
	Watermarks          Watermarks
	Index               Index
	Builder             Builder
	JQLTimeZone         string
	MaxIssuesPerRequest int
}

// Result is the terminal outcome of one Run call.
type Result struct {
	ProjectKey    string
	Mode          domain.UpdateType
	Status        domain.RunResultStatus
	StartDate     time.Time
	Elapsed       time.Duration
	IssuesUpdated int
	IssuesDeleted int
	Err           error
}

// Run executes INIT -> READ_WATERMARK -> PULL_LOOP -> (FULL? DELETE_PASS) ->
// REPORT -> DONE, with ERROR reachable at any step and cancellation observed
// at the top of the page loop, between issues within a page, and before
// each bulk execution.
func Run(ctx context.Context, deps Deps, projectKey string, mode domain.UpdateType) Result {
	start := time.Now()
	res := Result{ProjectKey: projectKey, Mode: mode, StartDate: start}

	var updatedCount int
	finish := func(status domain.RunResultStatus, err error) Result {
		res.Status = status
		res.Err = err
		res.IssuesUpdated = updatedCount
		res.Elapsed = time.Since(start)
		return res
	}

	if ctx.Err() != nil {
		return finish(domain.RunResultInterrupted, nil)
	}

	// READ_WATERMARK
	if err := deps.Index.Refresh(); err != nil {
		return finish(domain.RunResultError, errkind.New(errkind.BackendFailure, err))
	}
	watermark, hasWatermark, err := deps.Watermarks.ReadDatetimeValue(ctx, projectKey, watermarkProperty)
	if err != nil {
		return finish(domain.RunResultError, err)
	}

	effectiveMode := mode
	if !hasWatermark {
		effectiveMode = domain.UpdateTypeFull
	}
	res.Mode = effectiveMode

	pageSize := deps.MaxIssuesPerRequest
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	// PULL_LOOP
	updatedAfter := watermark
	startAt := 0
	var firstUpdated, lastUpdated time.Time
	preprocessors := deps.Builder.PreprocessorChain()

	for {
		if ctx.Err() != nil {
			return finish(domain.RunResultInterrupted, nil)
		}

		jql := jiraclient.BuildChangedSinceJQL(projectKey, updatedAfter, deps.JQLTimeZone)
		page, err := deps.Upstream.ChangedIssues(ctx, jql, deps.Builder.RequiredFields(), startAt, pageSize)
		if err != nil {
			if errkind.IsCancellation(err) {
				return finish(domain.RunResultInterrupted, nil)
			}
			return finish(domain.RunResultError, err)
		}
		if len(page.Issues) == 0 {
			break
		}

		ops := make([]searchindex.Op, 0, len(page.Issues))
		var pageLastUpdated time.Time

		for _, raw := range page.Issues {
			if ctx.Err() != nil {
				return finish(domain.RunResultInterrupted, nil)
			}

			issue, err := docbuilder.ApplyPreprocessors(preprocessors, projectKey, raw)
			if err != nil {
				return finish(domain.RunResultError, err)
			}

			doc, comments, err := deps.Builder.IndexIssue(projectKey, issue)
			if err != nil {
				return finish(domain.RunResultError, err)
			}

			issueKey, _ := domain.ExtractString("key", issue)
			ops = append(ops, searchindex.Op{ID: issueKey, Doc: doc})
			for i, cdoc := range comments {
				id, _ := cdoc["comment_id"].(string)
				if id == "" {
					id = fmt.Sprintf("%s-c%d", issueKey, i)
				}
				ops = append(ops, searchindex.Op{ID: id, Doc: cdoc})
			}

			updatedStr, _ := domain.ExtractString("fields.updated", issue)
			updated, perr := parseUpdated(updatedStr)
			if perr != nil {
				return finish(domain.RunResultError, errkind.New(errkind.DataShape, perr))
			}
			if !pageLastUpdated.IsZero() && updated.Before(pageLastUpdated) {
				return finish(domain.RunResultError, errkind.Newf(errkind.UpstreamFatal, "issue %s is out of ascending updated order on its page", issueKey))
			}
			if firstUpdated.IsZero() {
				firstUpdated = updated
			}
			lastUpdated = updated
			pageLastUpdated = updated
			updatedCount++
		}

		if ctx.Err() != nil {
			return finish(domain.RunResultInterrupted, nil)
		}
		if _, _, err := deps.Index.Bulk(ops); err != nil {
			return finish(domain.RunResultError, errkind.New(errkind.BackendFailure, err))
		}
		if err := deps.Watermarks.StoreDatetimeValue(ctx, projectKey, watermarkProperty, pageLastUpdated); err != nil {
			return finish(domain.RunResultError, err)
		}

		pageLen := len(page.Issues)
		sameMinute := firstUpdated.Truncate(time.Minute).Equal(lastUpdated.Truncate(time.Minute))

		var cont bool
		if !sameMinute {
			fetchedStartAt := startAt
			updatedAfter = lastUpdated
			startAt = 0
			firstUpdated = lastUpdated
			cont = page.Total > fetchedStartAt+pageLen
		} else {
			startAt += pageLen
			cont = page.Total > startAt
		}
		if !cont {
			break
		}
	}

	// Livelock guard: progress was made but the watermark would otherwise
	// land exactly where it started, which would re-fetch the same issues
	// forever on every subsequent tick.
	if updatedCount > 0 && !lastUpdated.IsZero() && lastUpdated.Equal(watermark) {
		bumped := watermark.Add(livelockBumpDuration)
		if err := deps.Watermarks.StoreDatetimeValue(ctx, projectKey, watermarkProperty, bumped); err != nil {
			return finish(domain.RunResultError, err)
		}
	}

	// DELETE_PASS: only on an effectively-full run.
	if effectiveMode == domain.UpdateTypeFull {
		if ctx.Err() != nil {
			return finish(domain.RunResultInterrupted, nil)
		}
		if err := deps.Index.Refresh(); err != nil {
			return finish(domain.RunResultError, errkind.New(errkind.BackendFailure, err))
		}
		q := searchindex.ToQuery(deps.Builder.NewDeletionQuery(projectKey, start))
		deleted, err := deps.Index.DeleteByQuery(q)
		if err != nil {
			return finish(domain.RunResultError, errkind.New(errkind.BackendFailure, err))
		}
		res.IssuesDeleted = deleted
	}

	return finish(domain.RunResultOK, nil)
}

// parseUpdated accepts both RFC3339 and the tracker's native
// "yyyy-MM-ddTHH:mm:ss.SSSZ" offset-without-colon timestamp format.
func parseUpdated(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty updated timestamp")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000-0700", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable updated timestamp %q", raw)
}
