package intel

import (
	"context"
	"log/slog"

	"github.com/hellosecurity/riversos/learning"
)

// maxIndicators caps the indicators one collection cycle produces overall.
const maxIndicators = 2

// Insight is one short research takeaway attributed to its source.
type Insight struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Config configures a Collector.
type Config struct {
	ThreatFoxURL string
	URLhausURL   string
	CISAKEVURL   string
	InsightURLs  []string

	Fetch FetchConfig
}

func (c *Config) defaults() {
	if c.ThreatFoxURL == "" {
		c.ThreatFoxURL = ThreatFoxURL
	}
	if c.URLhausURL == "" {
		c.URLhausURL = URLhausURL
	}
	if c.CISAKEVURL == "" {
		c.CISAKEVURL = CISAKEVURL
	}
	if c.InsightURLs == nil {
		c.InsightURLs = DefaultInsightURLs
	}
	c.Fetch.defaults()
}

// Collector gathers threat indicators and research insights from the
// configured feeds. Source failures are isolated: one dead feed never stops
// a cycle, and when everything fails the collector falls back to sample
// data so downstream consumers always get material.
type Collector struct {
	config    Config
	fetcher   *Fetcher
	extractor *Extractor
	cache     *Cache
	logger    *slog.Logger
}

// NewCollector creates a Collector. cache may be nil to disable persistence.
func NewCollector(cfg Config, cache *Cache, logger *slog.Logger) *Collector {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		config:    cfg,
		fetcher:   NewFetcher(cfg.Fetch),
		extractor: NewExtractor(),
		cache:     cache,
		logger:    logger,
	}
}

// CollectIOCs fetches every indicator feed and returns the combined set,
// capped at two indicators. When no feed yields anything it serves the
// cached set if present, and sample data as a last resort.
func (c *Collector) CollectIOCs(ctx context.Context) []learning.Observation {
	var iocs []learning.Observation
	for _, src := range c.indicatorSources() {
		got, err := c.fetchSource(ctx, src)
		if err != nil {
			c.logger.Warn("ioc feed failed", "source", src.name, "error", err)
			continue
		}
		c.logger.Info("ioc feed collected", "source", src.name, "count", len(got))
		iocs = append(iocs, got...)
	}

	if len(iocs) == 0 {
		if cached := c.cachedIOCs(); len(cached) > 0 {
			c.logger.Info("serving cached iocs", "count", len(cached))
			return cached
		}
		c.logger.Warn("all ioc feeds failed, using sample data")
		return SampleIOCs()
	}

	if len(iocs) > maxIndicators {
		iocs = iocs[:maxIndicators]
	}
	if c.cache != nil {
		if err := c.cache.StoreIOCs(iocs); err != nil {
			c.logger.Warn("ioc cache write failed", "error", err)
		}
	}
	return iocs
}

// CollectInsights scrapes the configured research blogs for insight
// sentences. Falls back to the cache, then to sample insights.
func (c *Collector) CollectInsights(ctx context.Context) []Insight {
	var insights []Insight
	for _, url := range c.config.InsightURLs {
		body, err := c.fetcher.Get(ctx, url)
		if err != nil {
			c.logger.Warn("insight source failed", "source", url, "error", err)
			continue
		}
		for _, text := range c.extractor.Insights(string(body), url) {
			insights = append(insights, Insight{Text: text, Source: url})
		}
	}

	if len(insights) == 0 {
		if cached := c.cachedInsights(); len(cached) > 0 {
			c.logger.Info("serving cached insights", "count", len(cached))
			return cached
		}
		c.logger.Warn("all insight sources failed, using sample data")
		return SampleInsights()
	}

	if c.cache != nil {
		if err := c.cache.StoreInsights(insights); err != nil {
			c.logger.Warn("insight cache write failed", "error", err)
		}
	}
	return insights
}

func (c *Collector) cachedIOCs() []learning.Observation {
	if c.cache == nil {
		return nil
	}
	iocs, _, err := c.cache.LoadIOCs()
	if err != nil {
		return nil
	}
	return iocs
}

func (c *Collector) cachedInsights() []Insight {
	if c.cache == nil {
		return nil
	}
	insights, _, err := c.cache.LoadInsights()
	if err != nil {
		return nil
	}
	return insights
}
