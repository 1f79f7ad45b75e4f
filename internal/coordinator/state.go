package coordinator

import (
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

// projectState is the coordinator's in-memory bookkeeping for one project,
// grounded on the teacher's gitrepos.RepoState: a small, mutex-guarded
// per-key record the coordinator updates from its own tick and from
// indexer completion callbacks, never shared beyond the coordinator.
type projectState struct {
	lastIncrementalStart time.Time
	lastFullStart        time.Time
	forceFullRequested   bool
	inFlightMode         domain.UpdateType // "" when no indexer is running for this project
}

// stateFor returns the project's state, creating a zero-value entry on
// first reference. Callers must hold c.mu.
func (c *Coordinator) stateFor(projectKey string) *projectState {
	st, ok := c.states[projectKey]
	if !ok {
		st = &projectState{}
		c.states[projectKey] = st
	}
	return st
}

// dueMode computes what, if anything, is due for projectKey per §4.1 step 2.
// Callers must hold c.mu.
func (c *Coordinator) dueMode(projectKey string, now time.Time) domain.UpdateType {
	st := c.stateFor(projectKey)
	if st.inFlightMode != "" {
		return ""
	}
	fullEnabled := c.cfg.IndexFullUpdatePeriod > 0
	if st.forceFullRequested || (fullEnabled && now.Sub(st.lastFullStart) >= c.cfg.IndexFullUpdatePeriod) {
		return domain.UpdateTypeFull
	}
	if now.Sub(st.lastIncrementalStart) >= c.cfg.IndexUpdatePeriod {
		return domain.UpdateTypeIncremental
	}
	return ""
}
