package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Confidence assignment for threat pattern groups.
const (
	firstSeenConfidence  = 0.5
	repeatConfidenceStep = 0.1
)

// Deduper groups recurring threat observations by content hash and derives
// a confidence score from recurrence.
//
// Group state is process-local and intentionally not reconciled against the
// persisted threat_intelligence log: after a restart, a previously-seen hash
// scores as first-seen (0.5) again. Durable confidence would require
// rebuilding the groups from the log on startup; the current behavior is the
// documented one.
type Deduper struct {
	store  *Store
	logger *slog.Logger

	mu     sync.Mutex
	groups map[uint64][]Observation
}

// NewDeduper creates a deduper that persists one threat row per processed
// observation through the given store.
func NewDeduper(store *Store, logger *slog.Logger) *Deduper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduper{
		store:  store,
		logger: logger,
		groups: make(map[uint64][]Observation),
	}
}

// Process folds a batch of observations into the pattern groups and appends
// one persistent threat row per observation. A repeat of a hash already in
// its group scores min(1.0, 0.1×|group|); a genuinely first-seen hash scores
// 0.5. Missing fields take documented defaults: type "Unknown", ioc empty,
// source "Self-Learning".
//
// Storage failures are logged and skipped; the in-memory group is still
// updated so recurrence counting survives a transient outage.
func (d *Deduper) Process(ctx context.Context, observations []Observation) {
	for _, obs := range observations {
		confidence := d.fold(obs)

		row := &ThreatRow{
			ThreatType: obs.Type,
			IOC:        obs.IOC,
			Confidence: confidence,
			Source:     obs.Source,
		}
		if row.ThreatType == "" {
			row.ThreatType = "Unknown"
		}
		if row.Source == "" {
			row.Source = "Self-Learning"
		}

		if err := d.store.AppendThreatRow(ctx, row); err != nil {
			d.logger.Error("threat row append failed", "error", err, "ioc", row.IOC)
		}
	}
}

// fold adds obs to its group and returns the derived confidence.
func (d *Deduper) fold(obs Observation) float64 {
	key := observationHash(obs)

	d.mu.Lock()
	defer d.mu.Unlock()

	group, seen := d.groups[key]
	d.groups[key] = append(group, obs)
	if !seen {
		return firstSeenConfidence
	}
	confidence := repeatConfidenceStep * float64(len(group)+1)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// GroupCount returns the number of unique patterns seen this process
// lifetime.
func (d *Deduper) GroupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.groups)
}

// observationHash computes a stable non-cryptographic hash of the
// observation's canonical field-ordered form. Only stability and a low
// collision rate matter here; no adversarial property is needed.
func observationHash(obs Observation) uint64 {
	canonical := fmt.Sprintf("type=%s|ioc=%s|description=%s|source=%s|confidence=%s",
		obs.Type, obs.IOC, obs.Description, obs.Source,
		strconv.FormatFloat(obs.Confidence, 'g', -1, 64))
	return xxhash.Sum64String(canonical)
}
