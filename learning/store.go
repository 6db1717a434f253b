// Package learning implements the adaptive learning and retrieval engine:
// a persistent store of past interactions and per-domain expertise that
// upserts and ranks response patterns for fuzzy reuse, evolves a bounded
// skill score per knowledge domain, and deduplicates recurring
// threat-indicator observations by content hash.
package learning

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// maxPatternMatches caps FindPatternsContaining results.
const maxPatternMatches = 5

// Store is the persistent record keeper for the four knowledge record kinds.
// Each write is a single-record unit of work; there are no cross-record
// transactions.
type Store struct {
	DB *sql.DB
}

// NewStore wraps an already-opened knowledge database.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Init creates the knowledge tables if they don't exist.
func (s *Store) Init() error {
	if _, err := s.DB.Exec(Schema); err != nil {
		return storageErr("init schema", err)
	}
	return nil
}

// UpsertPattern replaces any existing row keyed by the exact input text.
// The usage count is reset to 1 on every call, not incremented: that is the
// literal upsert semantics of the interaction recorder and stored patterns
// never accumulate usage across rewrites.
func (s *Store) UpsertPattern(ctx context.Context, input, response string, score float64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR REPLACE INTO conversation_patterns
		(user_input, response_pattern, success_rate, usage_count, last_used)
		VALUES (?, ?, ?, 1, ?)`,
		input, response, score, time.Now().UnixMilli(),
	)
	if err != nil {
		return storageErr("upsert pattern", err)
	}
	return nil
}

// FindPatternsContaining returns stored patterns whose input text contains
// substr (case-sensitive), ordered by success rate descending then usage
// count descending, capped at 5 results.
//
// instr() is used instead of LIKE because SQLite LIKE is case-insensitive
// for ASCII.
func (s *Store) FindPatternsContaining(ctx context.Context, substr string) ([]*ConversationPattern, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT user_input, response_pattern, success_rate, usage_count, last_used
		FROM conversation_patterns
		WHERE instr(user_input, ?) > 0
		ORDER BY success_rate DESC, usage_count DESC
		LIMIT ?`, substr, maxPatternMatches)
	if err != nil {
		return nil, storageErr("find patterns", err)
	}
	defer rows.Close()

	var out []*ConversationPattern
	for rows.Next() {
		var p ConversationPattern
		var lastUsed int64
		if err := rows.Scan(&p.Input, &p.Response, &p.SuccessRate, &p.UsageCount, &lastUsed); err != nil {
			return nil, storageErr("scan pattern", err)
		}
		p.LastUsed = time.UnixMilli(lastUsed)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find patterns", err)
	}
	return out, nil
}

// AppendMetric records one learning metric sample. Append-only, never pruned:
// full history is deliberately preserved for offline analysis.
func (s *Store) AppendMetric(ctx context.Context, name string, value float64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO learning_metrics (metric_name, metric_value, timestamp) VALUES (?, ?, ?)`,
		name, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return storageErr("append metric", err)
	}
	return nil
}

// GetExpertise returns the expertise record for a domain, or nil if the
// domain has never gained experience.
func (s *Store) GetExpertise(ctx context.Context, domain string) (*ExpertiseRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT domain, skill_level, experience_points, last_updated
		FROM expertise_evolution WHERE domain = ?`, domain)

	var rec ExpertiseRecord
	var updated int64
	err := row.Scan(&rec.Domain, &rec.SkillLevel, &rec.ExperiencePoints, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get expertise", err)
	}
	rec.LastUpdated = time.UnixMilli(updated)
	return &rec, nil
}

// ListExpertise returns all expertise records ordered by skill level
// descending.
func (s *Store) ListExpertise(ctx context.Context) ([]*ExpertiseRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT domain, skill_level, experience_points, last_updated
		FROM expertise_evolution ORDER BY skill_level DESC`)
	if err != nil {
		return nil, storageErr("list expertise", err)
	}
	defer rows.Close()

	var out []*ExpertiseRecord
	for rows.Next() {
		var rec ExpertiseRecord
		var updated int64
		if err := rows.Scan(&rec.Domain, &rec.SkillLevel, &rec.ExperiencePoints, &updated); err != nil {
			return nil, storageErr("scan expertise", err)
		}
		rec.LastUpdated = time.UnixMilli(updated)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expertise", err)
	}
	return out, nil
}

// insertExpertise creates a domain's first record. Callers hold the domain
// lock; see Tracker.
func (s *Store) insertExpertise(ctx context.Context, domain string, level, points int) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO expertise_evolution (domain, skill_level, experience_points, last_updated)
		VALUES (?, ?, ?, ?)`,
		domain, level, points, time.Now().UnixMilli(),
	)
	if err != nil {
		return storageErr("insert expertise", err)
	}
	return nil
}

// updateExpertise rewrites a domain's level and points. Callers hold the
// domain lock; see Tracker.
func (s *Store) updateExpertise(ctx context.Context, domain string, level, points int) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE expertise_evolution SET skill_level = ?, experience_points = ?, last_updated = ?
		WHERE domain = ?`,
		level, points, time.Now().UnixMilli(), domain,
	)
	if err != nil {
		return storageErr("update expertise", err)
	}
	return nil
}

// AppendThreatRow appends one observation to the persistent threat log.
// One row per processed observation regardless of whether its content was
// seen before.
func (s *Store) AppendThreatRow(ctx context.Context, row *ThreatRow) error {
	ts := row.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO threat_intelligence (threat_type, ioc_value, confidence, source, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		row.ThreatType, row.IOC, row.Confidence, row.Source, ts.UnixMilli(),
	)
	if err != nil {
		return storageErr("append threat row", err)
	}
	return nil
}

// ThreatRows returns the most recent persisted observations, newest first.
func (s *Store) ThreatRows(ctx context.Context, limit int) ([]*ThreatRow, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT threat_type, ioc_value, confidence, source, timestamp
		FROM threat_intelligence ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("threat rows", err)
	}
	defer rows.Close()

	var out []*ThreatRow
	for rows.Next() {
		var r ThreatRow
		var ts int64
		if err := rows.Scan(&r.ThreatType, &r.IOC, &r.Confidence, &r.Source, &ts); err != nil {
			return nil, storageErr("scan threat row", err)
		}
		r.Timestamp = time.UnixMilli(ts)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("threat rows", err)
	}
	return out, nil
}

// DomainCount returns the number of domains with an expertise record.
func (s *Store) DomainCount(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM expertise_evolution`).Scan(&n); err != nil {
		return 0, storageErr("domain count", err)
	}
	return n, nil
}

// AverageSkill returns the mean skill level across all domains, 0 when no
// domain exists yet.
func (s *Store) AverageSkill(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.DB.QueryRowContext(ctx, `SELECT AVG(skill_level) FROM expertise_evolution`).Scan(&avg); err != nil {
		return 0, storageErr("average skill", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
