package learning

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hellosecurity/riversos/dbopen"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	s := NewStore(db)
	if err := s.Init(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}

func TestInitSchema(t *testing.T) {
	// WHAT: Verify schema creates all four knowledge tables.
	// WHY: Everything else in the engine assumes these tables exist.
	s := openTestStore(t)
	for _, table := range []string{"conversation_patterns", "learning_metrics", "expertise_evolution", "threat_intelligence"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestUpsertPatternReplaces(t *testing.T) {
	// WHAT: Two upserts with the same input leave exactly one row carrying
	// the second response and score, with usage_count 1 (not 2).
	// WHY: Replace-not-accumulate is the documented upsert semantics.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertPattern(ctx, "malware report", "first answer", 0.4); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertPattern(ctx, "malware report", "second answer", 0.9); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var count int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM conversation_patterns WHERE user_input = ?`, "malware report").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("rows for key: got %d, want 1", count)
	}

	patterns, err := s.FindPatternsContaining(ctx, "malware report")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("matches: got %d, want 1", len(patterns))
	}
	p := patterns[0]
	if p.Response != "second answer" {
		t.Errorf("response: got %q, want %q", p.Response, "second answer")
	}
	if p.SuccessRate != 0.9 {
		t.Errorf("success rate: got %v, want 0.9", p.SuccessRate)
	}
	if p.UsageCount != 1 {
		t.Errorf("usage count: got %d, want 1", p.UsageCount)
	}
}

func TestFindPatternsContainingRanking(t *testing.T) {
	// WHAT: Substring containment filters first; ranking is success rate
	// then usage count, descending.
	// WHY: "malware report" must win on containment of "mal" even though
	// "normal check" has a higher usage count.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertPattern(ctx, "malware report", "block the indicators", 0.9); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPattern(ctx, "normal check", "all clear", 0.5); err != nil {
		t.Fatal(err)
	}
	// Give "normal check" a larger usage count directly; upsert always
	// writes 1 so this can only happen out-of-band.
	if _, err := s.DB.Exec(`UPDATE conversation_patterns SET usage_count = 9 WHERE user_input = 'normal check'`); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindPatternsContaining(ctx, "mal")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches for 'mal': got %d, want 2 (both keys contain it)", len(got))
	}
	if got[0].Input != "malware report" {
		t.Errorf("top-ranked: got %q, want %q", got[0].Input, "malware report")
	}
}

func TestFindPatternsContainingCaseSensitive(t *testing.T) {
	// WHAT: Containment is case-sensitive.
	// WHY: Keys are raw input text, never normalized; LIKE would fold case.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertPattern(ctx, "Malware report", "resp", 0.5); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindPatternsContaining(ctx, "mal")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("lowercase 'mal' matched %d rows against 'Malware', want 0", len(got))
	}

	got, err = s.FindPatternsContaining(ctx, "Mal")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("'Mal' matches: got %d, want 1", len(got))
	}
}

func TestFindPatternsContainingCap(t *testing.T) {
	// WHAT: Results are capped at five.
	// WHY: Retrieval only ever considers the top candidates.
	s := openTestStore(t)
	ctx := context.Background()

	inputs := []string{"query a", "query b", "query c", "query d", "query e", "query f", "query g"}
	for i, in := range inputs {
		if err := s.UpsertPattern(ctx, in, "resp", float64(i)/10); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.FindPatternsContaining(ctx, "query")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("matches: got %d, want 5", len(got))
	}
	// Highest success rate first.
	if got[0].Input != "query g" {
		t.Errorf("top-ranked: got %q, want %q", got[0].Input, "query g")
	}
}

func TestAppendMetricIsAppendOnly(t *testing.T) {
	// WHAT: Every append creates a new row; nothing is mutated.
	// WHY: Full metric history is preserved for offline analysis.
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.AppendMetric(ctx, "interaction_effectiveness", 0.8); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var count int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM learning_metrics WHERE metric_name = 'interaction_effectiveness'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("metric rows: got %d, want 3", count)
	}
}

func TestGetExpertiseAbsent(t *testing.T) {
	// WHAT: Absent domain reads as nil, not an error.
	// WHY: Absence is a normal outcome, not a failure.
	s := openTestStore(t)

	rec, err := s.GetExpertise(context.Background(), "forensics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("got %+v, want nil", rec)
	}
}

func TestStorageUnavailable(t *testing.T) {
	// WHAT: Operations against a closed database wrap ErrStorageUnavailable.
	// WHY: Callers branch on the sentinel to degrade instead of failing.
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(db)
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	db.Close()

	ctx := context.Background()
	if err := s.UpsertPattern(ctx, "x", "y", 0.5); !isStorageUnavailable(err) {
		t.Errorf("upsert after close: got %v, want ErrStorageUnavailable", err)
	}
	if _, err := s.FindPatternsContaining(ctx, "x"); !isStorageUnavailable(err) {
		t.Errorf("find after close: got %v, want ErrStorageUnavailable", err)
	}
	if err := s.AppendMetric(ctx, "m", 1); !isStorageUnavailable(err) {
		t.Errorf("metric after close: got %v, want ErrStorageUnavailable", err)
	}
}

func isStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
