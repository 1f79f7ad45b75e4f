package coordinator

import (
	"context"
	"time"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// ProjectDiscovery lists the projects visible to the configured upstream
// credentials, satisfied by jiraclient.Client.
type ProjectDiscovery interface {
	ProjectKeys(ctx context.Context) ([]string, error)
}

// refreshProjects implements §4.2: a configured static list is used
// verbatim and never refreshed; otherwise the list is pulled from upstream
// no more often than ProjectsRefreshInterval, with excluded keys
// subtracted. A refresh failure keeps the previous list and is returned so
// the caller can defer this tick's dispatch.
func (c *Coordinator) refreshProjects(ctx context.Context) error {
	if len(c.cfg.ProjectKeysIndexed) > 0 {
		c.mu.Lock()
		c.projectKeys = append([]string(nil), c.cfg.ProjectKeysIndexed...)
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	stale := c.lastDiscovery.IsZero() || time.Since(c.lastDiscovery) >= c.cfg.ProjectsRefreshInterval
	c.mu.Unlock()
	if !stale {
		return nil
	}

	keys, err := c.discovery.ProjectKeys(ctx)
	if err != nil {
		return errkind.New(errkind.UpstreamTransient, err)
	}

	excluded := make(map[string]bool, len(c.cfg.ProjectKeysExcluded))
	for _, k := range c.cfg.ProjectKeysExcluded {
		excluded[k] = true
	}
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if !excluded[k] {
			filtered = append(filtered, k)
		}
	}

	c.mu.Lock()
	c.projectKeys = filtered
	c.lastDiscovery = time.Now()
	c.mu.Unlock()
	return nil
}
