package learning

import (
	"context"
	"math"
	"testing"
)

func TestProcessFirstSeenConfidence(t *testing.T) {
	// WHAT: A never-seen observation scores 0.5 and persists one row.
	// WHY: First sighting carries moderate confidence by definition.
	s := openTestStore(t)
	d := NewDeduper(s, nil)
	ctx := context.Background()

	d.Process(ctx, []Observation{{Type: "IP", IOC: "192.168.1.100", Source: "ThreatFox"}})

	rows, err := s.ThreatRows(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0].Confidence != 0.5 {
		t.Errorf("confidence: got %v, want 0.5", rows[0].Confidence)
	}
	if rows[0].ThreatType != "IP" || rows[0].IOC != "192.168.1.100" || rows[0].Source != "ThreatFox" {
		t.Errorf("row fields: got %+v", rows[0])
	}
}

func TestProcessRepeatConfidence(t *testing.T) {
	// WHAT: Processing byte-identical content twice yields 0.5 then 0.2,
	// and both rows are persisted with those values.
	// WHY: Repeat confidence is 0.1 × group size, applied per observation.
	s := openTestStore(t)
	d := NewDeduper(s, nil)
	ctx := context.Background()

	obs := Observation{Type: "Domain", IOC: "malware.example.com", Description: "distribution site", Source: "Sample Data", Confidence: 0.9}
	d.Process(ctx, []Observation{obs})
	d.Process(ctx, []Observation{obs})

	rows, err := s.ThreatRows(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	// ThreatRows returns newest first.
	if math.Abs(rows[0].Confidence-0.2) > 1e-9 {
		t.Errorf("second sighting confidence: got %v, want 0.2", rows[0].Confidence)
	}
	if rows[1].Confidence != 0.5 {
		t.Errorf("first sighting confidence: got %v, want 0.5", rows[1].Confidence)
	}
	if d.GroupCount() != 1 {
		t.Errorf("group count: got %d, want 1", d.GroupCount())
	}
}

func TestProcessConfidenceCap(t *testing.T) {
	// WHAT: Confidence never exceeds 1.0 however often a pattern recurs.
	// WHY: Confidence is a probability-like score in [0,1].
	s := openTestStore(t)
	d := NewDeduper(s, nil)
	ctx := context.Background()

	obs := Observation{Type: "MD5", IOC: "5d41402abc4b2a76b9719d911017c592"}
	for i := 0; i < 15; i++ {
		d.Process(ctx, []Observation{obs})
	}

	rows, err := s.ThreatRows(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 15 {
		t.Fatalf("rows: got %d, want 15 (one per processed observation)", len(rows))
	}
	for _, r := range rows {
		if r.Confidence > 1.0 {
			t.Fatalf("confidence above cap: %v", r.Confidence)
		}
	}
	// Newest row is the 15th sighting: min(1.0, 0.1×15) = 1.0.
	if rows[0].Confidence != 1.0 {
		t.Errorf("15th sighting confidence: got %v, want 1.0", rows[0].Confidence)
	}
}

func TestProcessDefaults(t *testing.T) {
	// WHAT: Missing fields take the documented defaults.
	// WHY: Malformed observations are resolved via defaults, not errors.
	s := openTestStore(t)
	d := NewDeduper(s, nil)
	ctx := context.Background()

	d.Process(ctx, []Observation{{Description: "bare note"}})

	rows, err := s.ThreatRows(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatal("row not persisted")
	}
	if rows[0].ThreatType != "Unknown" {
		t.Errorf("type default: got %q, want %q", rows[0].ThreatType, "Unknown")
	}
	if rows[0].IOC != "" {
		t.Errorf("ioc default: got %q, want empty", rows[0].IOC)
	}
	if rows[0].Source != "Self-Learning" {
		t.Errorf("source default: got %q, want %q", rows[0].Source, "Self-Learning")
	}
}

func TestObservationHashFieldOrder(t *testing.T) {
	// WHAT: Equal content hashes equal; differing content hashes differ.
	// WHY: Grouping is by canonical field-ordered content, not identity.
	a := Observation{Type: "IP", IOC: "1.2.3.4", Source: "x"}
	b := Observation{Type: "IP", IOC: "1.2.3.4", Source: "x"}
	c := Observation{Type: "IP", IOC: "1.2.3.5", Source: "x"}

	if observationHash(a) != observationHash(b) {
		t.Error("identical observations hash differently")
	}
	if observationHash(a) == observationHash(c) {
		t.Error("distinct observations collide")
	}
}
