package learning

import (
	"context"
	"sync"
)

// maxSkillLevel clamps skill evolution; experience points are not clamped
// and keep growing past saturation.
const maxSkillLevel = 100

// Tracker owns the skill-level/experience state machine per domain.
//
// The store's expertise upsert is a read-modify-write with no multi-statement
// transaction, so concurrent grants to the same domain could interleave and
// lose an update. Tracker serializes each domain's read-modify-write behind a
// per-domain mutex.
type Tracker struct {
	store *Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a tracker bound to the given store.
func NewTracker(store *Store) *Tracker {
	return &Tracker{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Grant adds experience to a domain and evolves its skill level.
//
// Absent domain: created with level 1 and the given points.
// Present domain: the new point total is accumulated first, and the level
// increment is floor(newPoints/100) — derived from the cumulative total, not
// the incremental gain. Repeated small grants therefore compound
// super-linearly. That is the documented transition and is pinned by tests;
// do not "fix" it here.
//
// Levels clamp at 100. There is no decay and no downgrade path.
func (t *Tracker) Grant(ctx context.Context, domain string, gained int) error {
	lock := t.domainLock(domain)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.GetExpertise(ctx, domain)
	if err != nil {
		return err
	}
	if rec == nil {
		return t.store.insertExpertise(ctx, domain, 1, gained)
	}

	newPoints := rec.ExperiencePoints + gained
	newLevel := rec.SkillLevel + newPoints/100
	if newLevel > maxSkillLevel {
		newLevel = maxSkillLevel
	}
	return t.store.updateExpertise(ctx, domain, newLevel, newPoints)
}

// Level returns a domain's current skill level, 0 when the domain is absent.
func (t *Tracker) Level(ctx context.Context, domain string) (int, error) {
	rec, err := t.store.GetExpertise(ctx, domain)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return rec.SkillLevel, nil
}

func (t *Tracker) domainLock(domain string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[domain]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[domain] = lock
	}
	return lock
}
