package dashboard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hellosecurity/riversos/dbopen"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

func newTestDashboard(t *testing.T, cfg Config) (*Dashboard, *soc.Store, *learning.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	socStore := soc.NewStore(dbopen.OpenMemory(t))
	if err := socStore.Init(); err != nil {
		t.Fatalf("init soc schema: %v", err)
	}
	learnStore := learning.NewStore(dbopen.OpenMemory(t))
	if err := learnStore.Init(); err != nil {
		t.Fatalf("init learning schema: %v", err)
	}
	engine := learning.NewEngine(learnStore, learning.Config{}, logger)

	return New(cfg, socStore, engine, logger), socStore, engine
}

// WHAT: Snapshot on a cold dashboard refreshes once, and later reads serve
// the cache without touching the stores again.
func TestSnapshotCaches(t *testing.T) {
	d, socStore, _ := newTestDashboard(t, Config{})
	ctx := context.Background()

	first, err := d.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if first.ActiveAlerts != 0 {
		t.Errorf("cold snapshot alerts = %d, want 0", first.ActiveAlerts)
	}

	if _, err := socStore.CreateAlert(ctx, "c2_traffic", soc.SeverityHigh, "ThreatFox", "beacon"); err != nil {
		t.Fatal(err)
	}

	// WHY: the cached snapshot must not see the new alert until a refresh.
	second, err := d.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.ActiveAlerts != 0 {
		t.Errorf("cached snapshot alerts = %d, want stale 0", second.ActiveAlerts)
	}

	refreshed, err := d.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.ActiveAlerts != 1 {
		t.Errorf("refreshed snapshot alerts = %d, want 1", refreshed.ActiveAlerts)
	}
}

// WHAT: the snapshot carries the expertise summary line from the engine.
func TestSnapshotExpertise(t *testing.T) {
	d, _, engine := newTestDashboard(t, Config{})
	ctx := context.Background()

	engine.GrantExperience(ctx, learning.DomainThreatIntelligence, 10)

	snap, err := d.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(snap.Expertise, "1 domains active") {
		t.Errorf("expertise = %q", snap.Expertise)
	}
}

// WHAT: rendering shows the counters, severity-tagged alert rows, and the
// no-alerts notice when the queue is empty.
func TestRender(t *testing.T) {
	d, socStore, _ := newTestDashboard(t, Config{})
	ctx := context.Background()

	empty, err := d.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(empty, "No recent alerts - System operating normally") {
		t.Error("empty dashboard missing the all-clear notice")
	}
	if !strings.Contains(empty, "RIVERS OS - INTERACTIVE THREAT DASHBOARD") {
		t.Error("missing banner")
	}

	if _, err := socStore.CreateAlert(ctx, "malware_detection", soc.SeverityCritical, "EDR", "ransomware dropped"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := d.Render(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Active Alerts:        1") {
		t.Errorf("counter row missing:\n%s", got)
	}
	if !strings.Contains(got, "[C] malware_detection") {
		t.Errorf("severity-tagged alert row missing:\n%s", got)
	}
}

// WHAT: the recent-alert list honors the configured cap.
func TestSnapshotRecentAlertCap(t *testing.T) {
	d, socStore, _ := newTestDashboard(t, Config{RecentAlerts: 2})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := socStore.CreateAlert(ctx, "probe", soc.SeverityLow, "ids", "scan"); err != nil {
			t.Fatal(err)
		}
	}
	snap, err := d.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.RecentAlerts) != 2 {
		t.Errorf("recent alerts = %d, want 2", len(snap.RecentAlerts))
	}
	if snap.ActiveAlerts != 4 {
		t.Errorf("active count = %d, want 4", snap.ActiveAlerts)
	}
}

// WHAT: the background refresher picks up store changes without explicit
// Refresh calls.
func TestRunRefreshes(t *testing.T) {
	d, socStore, _ := newTestDashboard(t, Config{RefreshInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.Run(ctx)

	if _, err := socStore.CreateAlert(ctx, "c2_traffic", soc.SeverityHigh, "ThreatFox", "beacon"); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		snap, err := d.Snapshot(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if snap.ActiveAlerts == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("refresher never picked up the new alert")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
