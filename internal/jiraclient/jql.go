package jiraclient

import (
	"fmt"
	"strings"
	"time"
)

// BuildChangedSinceJQL builds the JQL fragment selecting a project's issues
// updated at or after since (truncated to the minute, per the tracker's own
// minute-resolution "updated" comparisons), ordered oldest-changed-first so
// pagination is stable across pages fetched within the same run.
func BuildChangedSinceJQL(projectKey string, since time.Time, timeZone string) string {
	truncated := since.Truncate(time.Minute)
	return fmt.Sprintf(
		`project = %s AND updated >= "%s" ORDER BY updated ASC`,
		quoteJQL(projectKey), formatJQLTimestamp(truncated, timeZone),
	)
}

// quoteJQL escapes a bare identifier used as a JQL literal. Project keys are
// alphanumeric by tracker convention, but this guards against keys
// containing characters JQL would otherwise misparse.
func quoteJQL(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// formatJQLTimestamp renders a time.Time the way Jira's JQL date literals
// expect: "yyyy-MM-dd HH:mm", evaluated in the tracker's configured time
// zone.
func formatJQLTimestamp(t time.Time, timeZone string) string {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
