// Package config loads and validates jira-river settings the way the
// teacher loads its own: viper + pflag, with CLI flags taking priority over
// environment variables, an optional .env file, then built-in defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// JiraSettings configures the upstream issue-tracker client (C2).
type JiraSettings struct {
	URLBase             string        `mapstructure:"url_base"`
	Username            string        `mapstructure:"username"`
	Pwd                 string        `mapstructure:"pwd"`
	JqlTimeZone         string        `mapstructure:"jql_time_zone"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxIssuesPerRequest int           `mapstructure:"max_issues_per_request"`
	ProjectKeysIndexed  []string      `mapstructure:"project_keys_indexed"`
	ProjectKeysExcluded []string      `mapstructure:"project_keys_excluded"`
	IndexUpdatePeriod   time.Duration `mapstructure:"index_update_period"`
	IndexFullUpdate     time.Duration `mapstructure:"index_full_update_period"`
	MaxIndexingThreads  int           `mapstructure:"max_indexing_threads"`
	ProjectsRefresh     time.Duration `mapstructure:"projects_refresh_interval"`
}

// IndexSettings configures the search-backend target and the document
// builder (C4). Field/filter/comment configuration is deliberately left as
// a loosely-typed map (mirroring the original's "settings map" shape)
// because its keys are open-ended and validated by docbuilder, not here.
type IndexSettings struct {
	Index          string `mapstructure:"index"`
	Type           string `mapstructure:"type"`
	WatermarkIndex string `mapstructure:"watermark_index"`

	// DocBuilder holds the raw "index.*" section (fields, value_filters,
	// comment_mode, field_comments, comment_fields, preprocessors) for
	// docbuilder.NewConfig to parse. It is populated separately from the
	// struct decode below since its shape is open-ended.
	DocBuilder map[string]interface{} `mapstructure:"-"`
}

// ActivityLogSettings configures the optional activity-log sink. Disabled
// when Index is empty.
type ActivityLogSettings struct {
	Index string `mapstructure:"index"`
	Type  string `mapstructure:"type"`
}

// OpsSettings configures the ambient liveness HTTP endpoint.
type OpsSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Settings is the fully resolved application configuration.
type Settings struct {
	Jira        JiraSettings        `mapstructure:"jira"`
	Index       IndexSettings       `mapstructure:"index"`
	ActivityLog ActivityLogSettings `mapstructure:"activity_log"`
	Ops         OpsSettings         `mapstructure:"ops"`
	BaseDir     string              `mapstructure:"base_dir"`
}

// LoadSettings loads settings from environment variables, an optional .env
// file, and defaults, without CLI flag overrides.
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("jira.jql_time_zone", "UTC")
	v.SetDefault("jira.timeout", 5*time.Second)
	v.SetDefault("jira.max_issues_per_request", 50)
	v.SetDefault("jira.index_update_period", 5*time.Minute)
	v.SetDefault("jira.index_full_update_period", 12*time.Hour)
	v.SetDefault("jira.max_indexing_threads", 1)
	v.SetDefault("jira.projects_refresh_interval", 30*time.Minute)

	v.SetDefault("index.index", "jira_river")
	v.SetDefault("index.type", "jira_issue")
	v.SetDefault("index.watermark_index", "jira_river_meta")

	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.addr", "127.0.0.1:8089")

	v.SetDefault("base_dir", defaultBaseDir())

	v.SetEnvPrefix("JIRARIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"jira.url_base", "jira.username", "jira.pwd", "jira.jql_time_zone",
		"jira.timeout", "jira.max_issues_per_request",
		"jira.project_keys_indexed", "jira.project_keys_excluded",
		"jira.index_update_period", "jira.index_full_update_period",
		"jira.max_indexing_threads", "jira.projects_refresh_interval",
		"index.index", "index.type", "index.watermark_index",
		"activity_log.index", "activity_log.type",
		"ops.enabled", "ops.addr", "base_dir",
	} {
		_ = v.BindEnv(key)
	}

	if flags != nil {
		for _, binding := range []struct{ key, flag string }{
			{"jira.url_base", "jira-url-base"},
			{"jira.username", "jira-username"},
			{"jira.pwd", "jira-pwd"},
			{"jira.jql_time_zone", "jira-jql-time-zone"},
			{"jira.timeout", "jira-timeout"},
			{"jira.max_issues_per_request", "jira-max-issues-per-request"},
			{"jira.project_keys_indexed", "jira-project-keys-indexed"},
			{"jira.project_keys_excluded", "jira-project-keys-excluded"},
			{"jira.index_update_period", "jira-index-update-period"},
			{"jira.index_full_update_period", "jira-index-full-update-period"},
			{"jira.max_indexing_threads", "jira-max-indexing-threads"},
			{"index.index", "index-name"},
			{"index.type", "index-type"},
			{"activity_log.index", "activity-log-index"},
			{"ops.addr", "ops-addr"},
			{"base_dir", "base-dir"},
		} {
			if f := flags.Lookup(binding.flag); f != nil {
				_ = v.BindPFlag(binding.key, f)
			}
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absence of a .env file is not an error

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errkind.New(errkind.Config, err)
	}

	settings.Jira.ProjectKeysIndexed = splitCSVEnv("JIRARIVER_JIRA_PROJECT_KEYS_INDEXED", settings.Jira.ProjectKeysIndexed)
	settings.Jira.ProjectKeysExcluded = splitCSVEnv("JIRARIVER_JIRA_PROJECT_KEYS_EXCLUDED", settings.Jira.ProjectKeysExcluded)

	if sub := v.Sub("index"); sub != nil {
		settings.Index.DocBuilder = sub.AllSettings()
	} else {
		settings.Index.DocBuilder = map[string]interface{}{}
	}

	return &settings, nil
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jira-river"
	}
	return home + "/.jira-river"
}

// splitCSVEnv re-parses a comma-separated env var the way the teacher
// re-parses RELIC_MCP_GIT_REPOS_URLS, needed because viper's automatic env
// binding does not split scalar env strings into slices for us.
func splitCSVEnv(envVar string, existing []string) []string {
	raw, ok := os.LookupEnv(envVar)
	if !ok || raw == "" {
		return trimAll(existing)
	}
	if len(existing) == 1 && strings.Contains(existing[0], ",") {
		return trimAll(strings.Split(raw, ","))
	}
	if len(existing) == 0 {
		return trimAll(strings.Split(raw, ","))
	}
	return trimAll(existing)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidateSettings fails fast on the §7 ConfigError cases this package owns
// (document-builder-specific validation lives in docbuilder.NewConfig).
func ValidateSettings(s *Settings) error {
	if strings.TrimSpace(s.Jira.URLBase) == "" {
		return errkind.Newf(errkind.Config, "jira.urlBase is required")
	}
	if s.Jira.MaxIndexingThreads < 1 {
		return errkind.Newf(errkind.Config, "jira.maxIndexingThreads must be >= 1, got %d", s.Jira.MaxIndexingThreads)
	}
	if s.Jira.MaxIssuesPerRequest < 1 {
		return errkind.Newf(errkind.Config, "jira.maxIssuesPerRequest must be >= 1, got %d", s.Jira.MaxIssuesPerRequest)
	}
	if s.Jira.Timeout <= 0 {
		return errkind.Newf(errkind.Config, "jira.timeout must be positive")
	}
	if s.Jira.IndexUpdatePeriod <= 0 {
		return errkind.Newf(errkind.Config, "jira.indexUpdatePeriod must be positive")
	}
	if s.Jira.IndexFullUpdate < 0 {
		return errkind.Newf(errkind.Config, "jira.indexFullUpdatePeriod must be >= 0 (0 disables full updates)")
	}
	if strings.TrimSpace(s.Index.Index) == "" {
		return errkind.Newf(errkind.Config, "index.index is required")
	}
	if strings.TrimSpace(s.Index.Type) == "" {
		return errkind.Newf(errkind.Config, "index.type is required")
	}
	if strings.TrimSpace(s.Index.WatermarkIndex) == "" {
		return errkind.Newf(errkind.Config, "index.watermark_index is required")
	}
	if overlap := intersect(s.Jira.ProjectKeysIndexed, s.Jira.ProjectKeysExcluded); len(overlap) > 0 {
		return errkind.Newf(errkind.Config, "project keys %v appear in both project_keys_indexed and project_keys_excluded", overlap)
	}
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}
