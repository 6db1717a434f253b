package intel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hellosecurity/riversos/learning"
)

// Cache persists the last successful collection on disk so briefings can be
// produced while the feeds are unreachable.
type Cache struct {
	dir string
}

// NewCache creates the cache directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

type cachedIOCs struct {
	FetchedAt time.Time              `json:"fetched_at"`
	IOCs      []learning.Observation `json:"iocs"`
}

type cachedInsights struct {
	FetchedAt time.Time `json:"fetched_at"`
	Insights  []Insight `json:"insights"`
}

func (c *Cache) iocsPath() string     { return filepath.Join(c.dir, "iocs.json") }
func (c *Cache) insightsPath() string { return filepath.Join(c.dir, "insights.json") }

// StoreIOCs writes the indicator set atomically.
func (c *Cache) StoreIOCs(iocs []learning.Observation) error {
	return c.write(c.iocsPath(), cachedIOCs{FetchedAt: time.Now().UTC(), IOCs: iocs})
}

// LoadIOCs returns the cached indicators and when they were fetched.
func (c *Cache) LoadIOCs() ([]learning.Observation, time.Time, error) {
	var cached cachedIOCs
	if err := c.read(c.iocsPath(), &cached); err != nil {
		return nil, time.Time{}, err
	}
	return cached.IOCs, cached.FetchedAt, nil
}

// StoreInsights writes the insight set atomically.
func (c *Cache) StoreInsights(insights []Insight) error {
	return c.write(c.insightsPath(), cachedInsights{FetchedAt: time.Now().UTC(), Insights: insights})
}

// LoadInsights returns the cached insights and when they were fetched.
func (c *Cache) LoadInsights() ([]Insight, time.Time, error) {
	var cached cachedInsights
	if err := c.read(c.insightsPath(), &cached); err != nil {
		return nil, time.Time{}, err
	}
	return cached.Insights, cached.FetchedAt, nil
}

func (c *Cache) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (c *Cache) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse cache %s: %w", filepath.Base(path), err)
	}
	return nil
}
