// Package coordinator runs the long-lived scheduling loop that decides,
// every tick, which projects are due for an incremental or full indexing
// pass, dispatches that work to a bounded worker pool with one slot kept
// free for incremental tasks, and records each run's outcome. It owns no
// indexing logic itself — that lives in internal/projectindexer — only the
// per-project cadence state and the dispatch policy around it, the same
// split the teacher draws between gitrepos.Manifest (state) and
// gitrepos.Service (dispatch).
package coordinator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/projectindexer"
)

// defaultTickInterval matches the source's suggested coordinator cadence.
const defaultTickInterval = 30 * time.Second

// Config carries the scheduling parameters from jira.* settings.
type Config struct {
	TickInterval            time.Duration
	IndexUpdatePeriod       time.Duration
	IndexFullUpdatePeriod   time.Duration
	MaxIndexingThreads      int
	ProjectKeysIndexed      []string
	ProjectKeysExcluded     []string
	ProjectsRefreshInterval time.Duration
	JQLTimeZone             string
}

func (c Config) normalized() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.MaxIndexingThreads < 1 {
		c.MaxIndexingThreads = 1
	}
	if c.ProjectsRefreshInterval <= 0 {
		c.ProjectsRefreshInterval = 30 * time.Minute
	}
	return c
}

// RunFunc executes one project indexing task. Production code binds this to
// a closure over projectindexer.Run and its Deps; tests substitute a fake.
type RunFunc func(ctx context.Context, projectKey string, mode domain.UpdateType) projectindexer.Result

// ActivityLog is the subset of activitylog.Writer the coordinator needs.
type ActivityLog interface {
	Record(ctx context.Context, rec domain.ActivityLogRecord)
}

// Coordinator is the scheduling loop. Construct with New and run with Run.
type Coordinator struct {
	cfg       Config
	discovery ProjectDiscovery
	runTask   RunFunc
	activity  ActivityLog
	logger    *slog.Logger

	mu                sync.Mutex
	states            map[string]*projectState
	projectKeys       []string
	lastDiscovery     time.Time
	lastDispatchIndex int

	sem     *semaphore.Weighted // overall cap: maxIndexingThreads
	fullSem *semaphore.Weighted // additional cap on FULL tasks: maxIndexingThreads-1 (or N when N==1)

	wg sync.WaitGroup
}

// New builds a Coordinator. discovery and activity may both be nil:
// discovery is unused when cfg.ProjectKeysIndexed is non-empty; activity
// defaults to a no-op sink when nil (matching activitylog.NewDisabled).
func New(cfg Config, discovery ProjectDiscovery, runTask RunFunc, activity ActivityLog, logger *slog.Logger) *Coordinator {
	cfg = cfg.normalized()
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = noopActivityLog{}
	}

	fullWeight := int64(cfg.MaxIndexingThreads - 1)
	if cfg.MaxIndexingThreads <= 1 {
		fullWeight = int64(cfg.MaxIndexingThreads)
	}

	return &Coordinator{
		cfg:         cfg,
		discovery:   discovery,
		runTask:     runTask,
		activity:    activity,
		logger:      logger,
		states:      make(map[string]*projectState),
		projectKeys: append([]string(nil), cfg.ProjectKeysIndexed...),
		sem:         semaphore.NewWeighted(int64(cfg.MaxIndexingThreads)),
		fullSem:     semaphore.NewWeighted(fullWeight),
		lastDispatchIndex: -1,
	}
}

type noopActivityLog struct{}

func (noopActivityLog) Record(context.Context, domain.ActivityLogRecord) {}

// Run blocks, ticking every cfg.TickInterval until ctx is cancelled. On
// cancellation it stops scheduling new work and waits for in-flight tasks —
// which observe the same ctx — to exit before returning.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.InfoContext(ctx, "coordinator starting", "jql_time_zone", c.cfg.JQLTimeZone, "tick_interval", c.cfg.TickInterval)
	c.tick(ctx)

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick implements §4.1's per-tick algorithm: refresh discovery, compute
// dueMode per project, dispatch what the worker pool has room for.
func (c *Coordinator) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := c.refreshProjects(ctx); err != nil {
		c.logger.WarnContext(ctx, "project discovery refresh failed, dispatch deferred this tick", "error", err)
		return
	}

	c.mu.Lock()
	keys := append([]string(nil), c.projectKeys...)
	start := (c.lastDispatchIndex + 1) % maxInt(1, len(keys))
	c.mu.Unlock()
	if len(keys) == 0 {
		return
	}

	now := time.Now()
	for i := 0; i < len(keys); i++ {
		idx := (start + i) % len(keys)
		key := keys[idx]

		c.mu.Lock()
		mode := c.dueMode(key, now)
		c.mu.Unlock()
		if mode == "" {
			continue
		}

		if c.dispatch(ctx, key, mode) {
			c.mu.Lock()
			c.lastDispatchIndex = idx
			c.mu.Unlock()
		}
	}
}

// dispatch attempts a non-blocking slot acquisition and, on success, runs
// the task in a goroutine. Returns false without side effects if no slot is
// currently available — the project remains due and is retried next tick.
func (c *Coordinator) dispatch(ctx context.Context, projectKey string, mode domain.UpdateType) bool {
	if !c.sem.TryAcquire(1) {
		return false
	}
	if mode == domain.UpdateTypeFull {
		if !c.fullSem.TryAcquire(1) {
			c.sem.Release(1)
			return false
		}
	}

	c.mu.Lock()
	c.stateFor(projectKey).inFlightMode = mode
	c.mu.Unlock()

	runID := uuid.NewString()
	c.logger.InfoContext(ctx, "dispatching indexing run", "project", projectKey, "mode", mode, "run_id", runID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.sem.Release(1)
		if mode == domain.UpdateTypeFull {
			defer c.fullSem.Release(1)
		}

		res := c.runTask(ctx, projectKey, mode)
		c.ReportIndexingFinished(ctx, res)
	}()
	return true
}

// ReportIndexingFinished is the completion callback §4.1 describes: it
// updates cadence state, clears in-flight/force-full flags, and best-effort
// writes an activity-log record. Exported so tests and an out-of-process
// runner can drive it directly against a known Result.
func (c *Coordinator) ReportIndexingFinished(ctx context.Context, res projectindexer.Result) {
	c.mu.Lock()
	st := c.stateFor(res.ProjectKey)
	if res.Mode == domain.UpdateTypeFull {
		st.lastFullStart = res.StartDate
	} else {
		st.lastIncrementalStart = res.StartDate
	}
	st.inFlightMode = ""
	if res.Status == domain.RunResultOK && res.Mode == domain.UpdateTypeFull {
		st.forceFullRequested = false
	}
	c.mu.Unlock()

	rec := domain.ActivityLogRecord{
		ProjectKey:    res.ProjectKey,
		UpdateType:    res.Mode,
		Result:        res.Status,
		StartDate:     res.StartDate,
		TimeElapsedMs: res.Elapsed.Milliseconds(),
		IssuesUpdated: res.IssuesUpdated,
		IssuesDeleted: res.IssuesDeleted,
	}
	if res.Err != nil {
		rec.ErrorMessage = res.Err.Error()
	}
	c.activity.Record(ctx, rec)
}

// ForceFullReindex sets forceFullRequested for one project (by key) or, if
// projectKey is nil, for every currently known project. Returns the
// comma-joined set of affected keys, or nil if a named project is unknown.
func (c *Coordinator) ForceFullReindex(projectKey *string) *string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if projectKey == nil {
		if len(c.projectKeys) == 0 {
			return nil
		}
		for _, k := range c.projectKeys {
			c.stateFor(k).forceFullRequested = true
		}
		joined := strings.Join(c.projectKeys, ",")
		return &joined
	}

	found := false
	for _, k := range c.projectKeys {
		if k == *projectKey {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	c.stateFor(*projectKey).forceFullRequested = true
	key := *projectKey
	return &key
}

// GetAllIndexedProjectsKeys returns the coordinator's current project list.
func (c *Coordinator) GetAllIndexedProjectsKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.projectKeys...)
}

// Wait blocks until every dispatched task currently in flight has returned.
// The runner calls it after Run returns on ctx cancellation, so shutdown
// drains in-flight runs; tests use it the same way.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
