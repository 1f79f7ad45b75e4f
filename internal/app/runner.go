// Package app wires the resolved configuration into the running system:
// the search backend, the upstream client, the document builder, the
// coordinator, and the ops server, then blocks until asked to shut down.
// Grounded on the teacher's own internal/app: a RunParams struct of
// function fields for dependency injection, and a RunWithDeps entry point
// that loads settings, validates them, builds the wired system and runs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Igneous/elasticsearch-river-jira/internal/activitylog"
	"github.com/Igneous/elasticsearch-river-jira/internal/config"
	"github.com/Igneous/elasticsearch-river-jira/internal/coordinator"
	"github.com/Igneous/elasticsearch-river-jira/internal/docbuilder"
	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/jiraclient"
	"github.com/Igneous/elasticsearch-river-jira/internal/ops"
	"github.com/Igneous/elasticsearch-river-jira/internal/projectindexer"
	"github.com/Igneous/elasticsearch-river-jira/internal/searchindex"
	"github.com/Igneous/elasticsearch-river-jira/internal/watermark"
)

// RunParams carries the dependencies RunWithDeps needs, split out as
// function fields so tests can substitute fakes for settings loading and
// the two long-running servers without touching disk or a network.
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	OpenIndex     func(baseDir, name string) (*searchindex.Adapter, error)
	BuildOpsServer func(addr string) *http.Server
}

// DefaultRunParams returns the production dependencies.
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		OpenIndex:      searchindex.Open,
		BuildOpsServer: ops.NewServer,
	}
}

// RunWithDeps loads and validates settings, builds the issue index,
// watermark store, activity log, upstream client and coordinator, starts
// the ops server when ops.enabled is set, and blocks until ctx is cancelled
// (the caller wires ctx to SIGINT/SIGTERM via signal.NotifyContext, or
// NewSignalContext below).
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	handler := slog.NewTextHandler(os.Stderr, nil)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("starting jira-river", "version", version)
	config.Log(settings)

	issueIndex, err := params.OpenIndex(settings.BaseDir, settings.Index.Index)
	if err != nil {
		return fmt.Errorf("open issue index: %w", err)
	}
	defer issueIndex.Close()

	watermarkIndexName := settings.Index.WatermarkIndex
	if watermarkIndexName == "" {
		watermarkIndexName = settings.Index.Index + "_watermark"
	}
	watermarkIndex, err := params.OpenIndex(settings.BaseDir, watermarkIndexName)
	if err != nil {
		return fmt.Errorf("open watermark index: %w", err)
	}
	defer watermarkIndex.Close()

	watermarks := watermark.New(watermarkIndex)

	activityWriter := activitylog.NewDisabled()
	if settings.ActivityLog.Index != "" {
		activityIndex, err := params.OpenIndex(settings.BaseDir, settings.ActivityLog.Index)
		if err != nil {
			return fmt.Errorf("open activity log index: %w", err)
		}
		defer activityIndex.Close()
		activityWriter = activitylog.New(activityIndex, logger)
	}

	docCfg, err := docbuilder.NewConfig(settings.Index.Index, settings.Jira.URLBase, settings.Index.DocBuilder)
	if err != nil {
		return fmt.Errorf("build document config: %w", err)
	}

	upstream := jiraclient.New(settings.Jira.URLBase, settings.Jira.Username, settings.Jira.Pwd, settings.Jira.Timeout)

	runTask := func(taskCtx context.Context, projectKey string, mode domain.UpdateType) projectindexer.Result {
		deps := projectindexer.Deps{
			Upstream:            upstream,
			Watermarks:          watermarks,
			Index:               issueIndex,
			Builder:             docCfg,
			JQLTimeZone:         settings.Jira.JqlTimeZone,
			MaxIssuesPerRequest: settings.Jira.MaxIssuesPerRequest,
		}
		return projectindexer.Run(taskCtx, deps, projectKey, mode)
	}

	coordCfg := coordinator.Config{
		IndexUpdatePeriod:       settings.Jira.IndexUpdatePeriod,
		IndexFullUpdatePeriod:   settings.Jira.IndexFullUpdate,
		MaxIndexingThreads:      settings.Jira.MaxIndexingThreads,
		ProjectKeysIndexed:      settings.Jira.ProjectKeysIndexed,
		ProjectKeysExcluded:     settings.Jira.ProjectKeysExcluded,
		ProjectsRefreshInterval: settings.Jira.ProjectsRefresh,
		JQLTimeZone:             settings.Jira.JqlTimeZone,
	}
	coord := coordinator.New(coordCfg, upstream, runTask, activityWriter, logger)

	var opsServer *http.Server
	if settings.Ops.Enabled {
		opsServer = params.BuildOpsServer(settings.Ops.Addr)
		go func() {
			slog.Info("ops server listening", "addr", opsServer.Addr)
			if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("ops server stopped unexpectedly", "error", err)
			}
		}()
	}

	go coord.Run(ctx)

	<-ctx.Done()
	slog.Info("shutdown requested, waiting for in-flight indexing runs")
	coord.Wait()

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("ops server shutdown error", "error", err)
		}
	}
	return nil
}

// NewSignalContext returns a context cancelled on SIGINT or SIGTERM, the
// same graceful-shutdown trigger the teacher relies on via its stdio
// transport's own process lifecycle.
func NewSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
