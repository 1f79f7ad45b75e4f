package jiraclient

import (
	"strings"
	"testing"
	"time"
)

func TestBuildChangedSinceJQL_TruncatesToMinute(t *testing.T) {
	since := time.Date(2026, 8, 1, 10, 15, 42, 0, time.UTC)
	jql := BuildChangedSinceJQL("PROJ", since, "UTC")

	if !strings.Contains(jql, `project = PROJ`) {
		t.Errorf("jql missing project clause: %s", jql)
	}
	if !strings.Contains(jql, `updated >= "2026-08-01 10:15"`) {
		t.Errorf("jql missing truncated timestamp: %s", jql)
	}
	if !strings.HasSuffix(jql, "ORDER BY updated ASC") {
		t.Errorf("jql missing order-by clause: %s", jql)
	}
}

func TestBuildChangedSinceJQL_UnknownTimeZoneFallsBackToUTC(t *testing.T) {
	since := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jql := BuildChangedSinceJQL("PROJ", since, "Not/AZone")
	if !strings.Contains(jql, "2026-08-01 10:00") {
		t.Errorf("expected UTC fallback formatting, got %s", jql)
	}
}
