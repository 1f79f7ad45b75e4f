package app

import "github.com/spf13/pflag"

// RegisterFlags registers the serve command's CLI flags, named to match the
// bindings LoadSettingsWithFlags looks up. Flags take priority over the
// matching JIRARIVER_ environment variable and .env entry.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("jira-url-base", "", "Upstream issue tracker base URL")
	flags.String("jira-username", "", "Upstream basic auth username")
	flags.String("jira-pwd", "", "Upstream basic auth password")
	flags.String("jira-jql-time-zone", "", "Time zone used to render JQL updated bounds")
	flags.Duration("jira-timeout", 0, "Per-request timeout against the upstream tracker")
	flags.Int("jira-max-issues-per-request", 0, "Page size for the upstream search endpoint")
	flags.StringSlice("jira-project-keys-indexed", nil, "Static project key allowlist (empty enables discovery)")
	flags.StringSlice("jira-project-keys-excluded", nil, "Project keys to subtract from discovery")
	flags.Duration("jira-index-update-period", 0, "Minimum interval between incremental runs per project")
	flags.Duration("jira-index-full-update-period", 0, "Minimum interval between full runs per project (0 disables)")
	flags.Int("jira-max-indexing-threads", 0, "Maximum concurrent indexing runs")

	flags.String("index-name", "", "Issue index name")
	flags.String("index-type", "", "Issue document type label")

	flags.String("activity-log-index", "", "Activity log index name (empty disables)")

	flags.String("ops-addr", "", "Listen address for the liveness HTTP endpoint")
	flags.String("base-dir", "", "Base directory for on-disk index data")
}
