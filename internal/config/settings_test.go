package config

import (
	"testing"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

func TestLoadSettings_Defaults(t *testing.T) {
	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Jira.MaxIndexingThreads != 1 {
		t.Errorf("Expected default max_indexing_threads 1, got %d", settings.Jira.MaxIndexingThreads)
	}
	if settings.Jira.IndexUpdatePeriod != 5*time.Minute {
		t.Errorf("Expected default index_update_period 5m, got %v", settings.Jira.IndexUpdatePeriod)
	}
	if settings.Jira.IndexFullUpdate != 12*time.Hour {
		t.Errorf("Expected default index_full_update_period 12h, got %v", settings.Jira.IndexFullUpdate)
	}
	if settings.Jira.JqlTimeZone != "UTC" {
		t.Errorf("Expected default jql_time_zone UTC, got %q", settings.Jira.JqlTimeZone)
	}
	if settings.Index.Index != "jira_river" {
		t.Errorf("Expected default index name jira_river, got %q", settings.Index.Index)
	}
}

func TestLoadSettings_EnvVars(t *testing.T) {
	t.Setenv("JIRARIVER_JIRA_URL_BASE", "https://issues.example.org")
	t.Setenv("JIRARIVER_JIRA_MAX_INDEXING_THREADS", "4")
	t.Setenv("JIRARIVER_JIRA_PROJECT_KEYS_INDEXED", "ORG, OTHER")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Jira.URLBase != "https://issues.example.org" {
		t.Errorf("Expected url_base override, got %q", settings.Jira.URLBase)
	}
	if settings.Jira.MaxIndexingThreads != 4 {
		t.Errorf("Expected max_indexing_threads 4, got %d", settings.Jira.MaxIndexingThreads)
	}
	if len(settings.Jira.ProjectKeysIndexed) != 2 || settings.Jira.ProjectKeysIndexed[0] != "ORG" {
		t.Errorf("Expected [ORG OTHER], got %v", settings.Jira.ProjectKeysIndexed)
	}
}

func TestValidateSettings_RequiresURLBase(t *testing.T) {
	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	err = ValidateSettings(settings)
	if !errkind.Is(err, errkind.Config) {
		t.Fatalf("expected a ConfigError for missing url_base, got %v", err)
	}
}

func TestValidateSettings_RejectsZeroThreads(t *testing.T) {
	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	settings.Jira.URLBase = "https://issues.example.org"
	settings.Jira.MaxIndexingThreads = 0

	if err := ValidateSettings(settings); !errkind.Is(err, errkind.Config) {
		t.Fatalf("expected a ConfigError for max_indexing_threads=0, got %v", err)
	}
}

func TestValidateSettings_RejectsOverlappingProjectKeyLists(t *testing.T) {
	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	settings.Jira.URLBase = "https://issues.example.org"
	settings.Jira.ProjectKeysIndexed = []string{"ORG"}
	settings.Jira.ProjectKeysExcluded = []string{"ORG"}

	if err := ValidateSettings(settings); !errkind.Is(err, errkind.Config) {
		t.Fatalf("expected a ConfigError for overlapping project key lists, got %v", err)
	}
}

func TestValidateSettings_Valid(t *testing.T) {
	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	settings.Jira.URLBase = "https://issues.example.org"

	if err := ValidateSettings(settings); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
