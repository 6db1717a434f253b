// Package dashboard aggregates SOC counters and learning progress into a
// cached snapshot with a text rendering. A background refresher keeps the
// snapshot warm so foreground reads never block on the stores.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

// Config configures a Dashboard.
type Config struct {
	RefreshInterval time.Duration // Default: 30s.
	RecentAlerts    int           // Recent alerts per snapshot. Default: 5.
}

func (c *Config) defaults() {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.RecentAlerts <= 0 {
		c.RecentAlerts = 5
	}
}

// Snapshot is one point-in-time view of SOC and learning state.
type Snapshot struct {
	ActiveAlerts  int          `json:"active_alerts"`
	OpenIncidents int          `json:"open_incidents"`
	ActiveHunts   int          `json:"active_hunts"`
	RecentAlerts  []*soc.Alert `json:"recent_alerts"`
	Expertise     string       `json:"expertise"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Dashboard caches Snapshots built from the SOC store and learning engine.
type Dashboard struct {
	config Config
	socs   *soc.Store
	engine *learning.Engine
	logger *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// New creates a Dashboard.
func New(cfg Config, socs *soc.Store, engine *learning.Engine, logger *slog.Logger) *Dashboard {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{config: cfg, socs: socs, engine: engine, logger: logger}
}

// Refresh rebuilds the cached snapshot from the stores.
func (d *Dashboard) Refresh(ctx context.Context) (*Snapshot, error) {
	data, err := d.socs.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("soc dashboard: %w", err)
	}
	if len(data.RecentAlerts) > d.config.RecentAlerts {
		data.RecentAlerts = data.RecentAlerts[:d.config.RecentAlerts]
	}

	snap := &Snapshot{
		ActiveAlerts:  data.ActiveAlerts,
		OpenIncidents: data.OpenIncidents,
		ActiveHunts:   data.ActiveHunts,
		RecentAlerts:  data.RecentAlerts,
		Expertise:     d.engine.ExpertiseSummary(ctx),
		UpdatedAt:     time.Now(),
	}

	d.mu.Lock()
	d.snap = snap
	d.mu.Unlock()
	return snap, nil
}

// Snapshot returns the cached snapshot, refreshing once when no refresh has
// happened yet.
func (d *Dashboard) Snapshot(ctx context.Context) (*Snapshot, error) {
	d.mu.RLock()
	snap := d.snap
	d.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return d.Refresh(ctx)
}

// Run refreshes the snapshot on the configured interval until ctx ends.
// Refresh failures are logged and the previous snapshot stays served.
func (d *Dashboard) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.RefreshInterval)
	defer ticker.Stop()

	if _, err := d.Refresh(ctx); err != nil {
		d.logger.Warn("dashboard refresh failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Refresh(ctx); err != nil {
				d.logger.Warn("dashboard refresh failed", "error", err)
			}
		}
	}
}

// Render formats a snapshot as the interactive dashboard text.
func (d *Dashboard) Render(ctx context.Context) (string, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("RIVERS OS - INTERACTIVE THREAT DASHBOARD\n")
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "SOC METRICS%42sLast Updated: %s\n", "", snap.UpdatedAt.Format("15:04:05"))
	b.WriteString(thin + "\n")
	fmt.Fprintf(&b, "Active Alerts:      %3d    Open Incidents:    %3d\n", snap.ActiveAlerts, snap.OpenIncidents)
	fmt.Fprintf(&b, "Active Hunts:       %3d\n", snap.ActiveHunts)

	b.WriteString("\nRECENT ALERTS\n")
	b.WriteString(thin + "\n")
	if len(snap.RecentAlerts) == 0 {
		b.WriteString("No recent alerts - System operating normally\n")
	} else {
		for _, alert := range snap.RecentAlerts {
			fmt.Fprintf(&b, "[%s] %-20s | %-15s | %s\n",
				severityTag(alert.Severity), alert.AlertType, alert.Source, alert.Status)
		}
	}

	b.WriteString("\nTHREAT INTELLIGENCE SUMMARY\n")
	b.WriteString(thin + "\n")
	fmt.Fprintf(&b, "Learning Status: %s\n", snap.Expertise)
	b.WriteString("\n" + rule + "\n")
	return b.String(), nil
}

// severityTag is the single-letter severity marker used in alert rows.
func severityTag(severity string) string {
	switch strings.ToLower(severity) {
	case soc.SeverityCritical:
		return "C"
	case soc.SeverityHigh:
		return "H"
	case soc.SeverityMedium:
		return "M"
	case soc.SeverityLow:
		return "L"
	case soc.SeverityInfo:
		return "I"
	}
	return "?"
}
