package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings, masking credentials, using the default
// logger.
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger.
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: jira.urlBase", "value", s.Jira.URLBase)
	logger.InfoContext(ctx, "Config: jira.jqlTimeZone", "value", s.Jira.JqlTimeZone)
	logger.InfoContext(ctx, "Config: jira.timeout", "value", s.Jira.Timeout)
	logger.InfoContext(ctx, "Config: jira.maxIssuesPerRequest", "value", s.Jira.MaxIssuesPerRequest)
	logger.InfoContext(ctx, "Config: jira.maxIndexingThreads", "value", s.Jira.MaxIndexingThreads)
	logger.InfoContext(ctx, "Config: jira.indexUpdatePeriod", "value", s.Jira.IndexUpdatePeriod)
	logger.InfoContext(ctx, "Config: jira.indexFullUpdatePeriod", "value", s.Jira.IndexFullUpdate)

	if len(s.Jira.ProjectKeysIndexed) > 0 {
		logger.InfoContext(ctx, "Config: jira.projectKeysIndexed", "value", s.Jira.ProjectKeysIndexed)
	} else {
		logger.InfoContext(ctx, "Config: jira.projectsRefreshInterval", "value", s.Jira.ProjectsRefresh)
	}
	if len(s.Jira.ProjectKeysExcluded) > 0 {
		logger.InfoContext(ctx, "Config: jira.projectKeysExcluded", "value", s.Jira.ProjectKeysExcluded)
	}

	logger.InfoContext(ctx, "Config: jira.username", "value", maskIfSet(s.Jira.Username))
	logger.InfoContext(ctx, "Config: jira.pwd", "value", maskIfSet(s.Jira.Pwd))

	logger.InfoContext(ctx, "Config: index.index", "value", s.Index.Index)
	logger.InfoContext(ctx, "Config: index.type", "value", s.Index.Type)
	logger.InfoContext(ctx, "Config: index.watermark_index", "value", s.Index.WatermarkIndex)

	if s.ActivityLog.Index != "" {
		logger.InfoContext(ctx, "Config: activity_log.index", "value", s.ActivityLog.Index)
	} else {
		logger.InfoContext(ctx, "Config: activity_log", "value", "disabled")
	}
}

// maskIfSet returns "****" for any non-empty secret, leaving empty values
// visible (an empty credential means "anonymous", which is worth seeing).
func maskIfSet(v string) string {
	if v == "" {
		return ""
	}
	return "****"
}

// SettingsLogValue returns a slog.Value for Settings with masked
// credentials, for callers that prefer slog.Any("config", ...) over the
// line-by-line LogWithLogger helper.
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("jira.urlBase", s.Jira.URLBase),
		slog.String("jira.username", maskIfSet(s.Jira.Username)),
		slog.String("jira.pwd", maskIfSet(s.Jira.Pwd)),
		slog.String("index.index", s.Index.Index),
		slog.String("index.type", s.Index.Type),
	)
}
