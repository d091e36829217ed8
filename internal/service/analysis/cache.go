package analysis

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cadencehq/cadence/internal/service/engine"
)

// Analyzer produces semantic analyses for resources and templates. Calls are
// expensive; the Cache memoizes them.
type Analyzer interface {
	AnalyzeResource(ctx context.Context, res engine.ResourceMetadata) (*engine.ResourceAnalysis, error)
	AnalyzeTemplate(ctx context.Context, tpl engine.TemplateMetadata) (*engine.TemplateAnalysis, error)
}

// Cache memoizes analyses keyed by entity id. Concurrent lookups for the same
// uncached id collapse into a single backend call.
type Cache struct {
	analyzer Analyzer
	group    singleflight.Group

	mu        sync.RWMutex
	resources map[string]*engine.ResourceAnalysis
	templates map[string]*engine.TemplateAnalysis

	logger *zap.Logger
}

func NewCache(analyzer Analyzer, logger *zap.Logger) *Cache {
	return &Cache{
		analyzer:  analyzer,
		resources: make(map[string]*engine.ResourceAnalysis),
		templates: make(map[string]*engine.TemplateAnalysis),
		logger:    logger,
	}
}

// Resource returns the analysis for a resource, issuing at most one backend
// call per id regardless of concurrency.
func (c *Cache) Resource(ctx context.Context, res engine.ResourceMetadata) (*engine.ResourceAnalysis, error) {
	c.mu.RLock()
	cached, ok := c.resources[res.ID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.group.Do("resource:"+res.ID, func() (any, error) {
		// Re-check under the flight: another caller may have filled it.
		c.mu.RLock()
		cached, ok := c.resources[res.ID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		analysis, err := c.analyzer.AnalyzeResource(ctx, res)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.resources[res.ID] = analysis
		c.mu.Unlock()

		c.logger.Debug("resource analysis cached", zap.String("resource_id", res.ID))
		return analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*engine.ResourceAnalysis), nil
}

// Template returns the analysis for a template with the same single-flight
// guarantee as Resource.
func (c *Cache) Template(ctx context.Context, tpl engine.TemplateMetadata) (*engine.TemplateAnalysis, error) {
	c.mu.RLock()
	cached, ok := c.templates[tpl.ID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.group.Do("template:"+tpl.ID, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.templates[tpl.ID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		analysis, err := c.analyzer.AnalyzeTemplate(ctx, tpl)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.templates[tpl.ID] = analysis
		c.mu.Unlock()

		c.logger.Debug("template analysis cached", zap.String("template_id", tpl.ID))
		return analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*engine.TemplateAnalysis), nil
}

// Seed preloads analyses already persisted by the caller, so previously
// analyzed entities never hit the backend again.
func (c *Cache) Seed(resources map[string]*engine.ResourceAnalysis, templates map[string]*engine.TemplateAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, analysis := range resources {
		c.resources[id] = analysis
	}
	for id, analysis := range templates {
		c.templates[id] = analysis
	}
}
