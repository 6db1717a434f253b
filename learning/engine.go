package learning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Config configures the Engine's bounded in-memory buffers.
type Config struct {
	// HistoryCap bounds the interaction-history buffer. Default: 10000.
	HistoryCap int
	// MemoryCap bounds the conversation-memory buffer. Default: 1000.
	MemoryCap int
}

func (c *Config) defaults() {
	if c.HistoryCap <= 0 {
		c.HistoryCap = 10_000
	}
	if c.MemoryCap <= 0 {
		c.MemoryCap = 1_000
	}
}

// Engine is the interaction recorder: it records every interaction, exposes
// adaptive retrieval, and bridges expertise growth to conversation events.
// It exclusively owns the in-memory buffers and orchestrates — but never
// bypasses — the Store for persisted record kinds.
//
// Safe for concurrent use: the interactive foreground loop and the periodic
// dashboard refresher share one Engine.
type Engine struct {
	store   *Store
	tracker *Tracker
	deduper *Deduper
	logger  *slog.Logger

	mu      sync.Mutex
	history *ring[interaction]
	memory  *ring[string]
}

// NewEngine creates the learning engine around an initialized store.
func NewEngine(store *Store, cfg Config, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		tracker: NewTracker(store),
		deduper: NewDeduper(store, logger),
		logger:  logger,
		history: newRing[interaction](cfg.HistoryCap),
		memory:  newRing[string](cfg.MemoryCap),
	}
}

// Store exposes the underlying knowledge store for read-only collaborators
// (dashboard, web front end).
func (e *Engine) Store() *Store { return e.store }

// Tracker exposes the expertise tracker.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// RecordInteraction learns from one user interaction: it appends to the
// bounded history, replaces the stored pattern for the exact input text, and
// appends an interaction_effectiveness metric sample.
//
// Storage failures are logged, never raised: a learning-subsystem outage
// must not block the primary chat flow.
func (e *Engine) RecordInteraction(ctx context.Context, input, response string, score float64) {
	e.mu.Lock()
	e.history.push(interaction{Input: input, Response: response, Effectiveness: score})
	e.mu.Unlock()

	if err := e.store.UpsertPattern(ctx, input, response, score); err != nil {
		e.logger.Error("pattern upsert failed", "error", err)
	}
	if err := e.store.AppendMetric(ctx, "interaction_effectiveness", score); err != nil {
		e.logger.Error("metric append failed", "error", err)
	}
}

// Remember appends one exchange to the conversation-memory buffer. The
// buffer feeds summary counts only, never matching.
func (e *Engine) Remember(input string) {
	e.mu.Lock()
	e.memory.push(input)
	e.mu.Unlock()
}

// AdaptiveResponse retrieves the best stored pattern containing query and
// enhances it with expertise-conditioned suffix text. The second return is
// false when no candidate exists or the store is unreachable — the caller
// falls through to other response-generation strategies.
func (e *Engine) AdaptiveResponse(ctx context.Context, query string) (string, bool) {
	patterns, err := e.store.FindPatternsContaining(ctx, query)
	if err != nil {
		e.logger.Error("adaptive retrieval failed", "error", err)
		return "", false
	}
	if len(patterns) == 0 {
		return "", false
	}

	enhanced, err := e.enhance(ctx, patterns[0].Response)
	if err != nil {
		e.logger.Error("response enhancement failed", "error", err)
		return "", false
	}
	return enhanced, true
}

// GrantExperience evolves expertise in a domain. Fire-and-forget: storage
// failures are logged and the grant is abandoned.
func (e *Engine) GrantExperience(ctx context.Context, domain string, gained int) {
	if err := e.tracker.Grant(ctx, domain, gained); err != nil {
		e.logger.Error("expertise grant failed", "error", err, "domain", domain)
	}
}

// ProcessObservations folds collected threat observations into the pattern
// groups and persists one threat row per observation.
func (e *Engine) ProcessObservations(ctx context.Context, observations []Observation) {
	e.deduper.Process(ctx, observations)
}

// Summary aggregates the counters the dashboard displays.
type Summary struct {
	Domains       int
	AverageSkill  float64
	HistoryLen    int
	MemoryLen     int
	PatternGroups int
}

// Summary returns current learning counters. Store errors degrade to zero
// counts rather than failing the caller.
func (e *Engine) Summary(ctx context.Context) Summary {
	var s Summary

	if n, err := e.store.DomainCount(ctx); err == nil {
		s.Domains = n
	} else {
		e.logger.Warn("domain count failed", "error", err)
	}
	if avg, err := e.store.AverageSkill(ctx); err == nil {
		s.AverageSkill = avg
	} else {
		e.logger.Warn("average skill failed", "error", err)
	}

	e.mu.Lock()
	s.HistoryLen = e.history.len()
	s.MemoryLen = e.memory.len()
	e.mu.Unlock()

	s.PatternGroups = e.deduper.GroupCount()
	return s
}

// ExpertiseSummary renders the one-line learning status the dashboard shows.
func (e *Engine) ExpertiseSummary(ctx context.Context) string {
	s := e.Summary(ctx)
	return fmt.Sprintf("%d domains active, %.1f%% average expertise", s.Domains, s.AverageSkill)
}
