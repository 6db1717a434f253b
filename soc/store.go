// Package soc provides the security operations store: alert triage,
// incident escalation and threat hunt tracking.
package soc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store wraps the SOC operations database.
type Store struct {
	DB *sql.DB
}

// NewStore wraps an already-opened SOC database.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Init creates the SOC tables if they don't exist.
func (s *Store) Init() error {
	if _, err := s.DB.Exec(Schema); err != nil {
		return fmt.Errorf("soc: init schema: %w", err)
	}
	return nil
}

// CreateAlert records a new security alert in open status and returns its ID.
func (s *Store) CreateAlert(ctx context.Context, alertType, severity, source, description string) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO alerts (id, alert_type, severity, source, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, alertType, severity, source, description, AlertOpen, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("soc: create alert: %w", err)
	}
	return id, nil
}

// ResolveAlert closes an alert with a resolution note.
func (s *Store) ResolveAlert(ctx context.Context, alertID, resolution string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE alerts SET status = ?, resolution = ? WHERE id = ?`,
		AlertResolved, resolution, alertID,
	)
	if err != nil {
		return fmt.Errorf("soc: resolve alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("soc: resolve alert: no alert with id %s", alertID)
	}
	return nil
}

// EscalateToIncident marks an alert escalated and opens a high-severity
// incident referencing it. Returns the new incident ID.
func (s *Store) EscalateToIncident(ctx context.Context, alertID, title, category string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO incidents (id, title, severity, category, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, title, SeverityHigh, category,
		fmt.Sprintf("Escalated from Alert #%s", alertID),
		IncidentInvestigating, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("soc: escalate: create incident: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE alerts SET status = ? WHERE id = ?`, AlertEscalated, alertID); err != nil {
		return "", fmt.Errorf("soc: escalate: update alert: %w", err)
	}
	return id, nil
}

// UpdateIncidentStatus transitions an incident and refreshes its timestamp.
func (s *Store) UpdateIncidentStatus(ctx context.Context, incidentID, status string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE incidents SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UnixMilli(), incidentID,
	)
	if err != nil {
		return fmt.Errorf("soc: update incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("soc: update incident: no incident with id %s", incidentID)
	}
	return nil
}

// StartHunt opens a new threat hunt and returns its ID. IOCs are stored as a
// JSON array.
func (s *Store) StartHunt(ctx context.Context, name, hypothesis string, iocs []string) (string, error) {
	id := uuid.NewString()
	encoded, err := json.Marshal(iocs)
	if err != nil {
		return "", fmt.Errorf("soc: start hunt: encode iocs: %w", err)
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO hunts (id, hunt_name, hypothesis, iocs_searched, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, hypothesis, string(encoded), HuntActive, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("soc: start hunt: %w", err)
	}
	return id, nil
}

// CompleteHunt closes a hunt with its findings.
func (s *Store) CompleteHunt(ctx context.Context, huntID, findings string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE hunts SET status = ?, findings = ?, completed_at = ? WHERE id = ?`,
		HuntCompleted, findings, time.Now().UnixMilli(), huntID,
	)
	if err != nil {
		return fmt.Errorf("soc: complete hunt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("soc: complete hunt: no hunt with id %s", huntID)
	}
	return nil
}

// ActiveAlertCount returns the number of alerts still open.
func (s *Store) ActiveAlertCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE status = ?`, AlertOpen).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("soc: active alert count: %w", err)
	}
	return n, nil
}

// OpenIncidentCount returns the number of incidents not yet resolved.
func (s *Store) OpenIncidentCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents WHERE status != ?`, IncidentResolved).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("soc: open incident count: %w", err)
	}
	return n, nil
}

// ActiveHuntCount returns the number of hunts still running.
func (s *Store) ActiveHuntCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM hunts WHERE status = ?`, HuntActive).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("soc: active hunt count: %w", err)
	}
	return n, nil
}

// RecentAlerts returns the newest alerts, most recent first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]*Alert, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, alert_type, severity, source, description, status, assigned_to, resolution, created_at
		FROM alerts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("soc: recent alerts: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var a Alert
		var created int64
		if err := rows.Scan(&a.ID, &a.AlertType, &a.Severity, &a.Source, &a.Description,
			&a.Status, &a.AssignedTo, &a.Resolution, &created); err != nil {
			return nil, fmt.Errorf("soc: scan alert: %w", err)
		}
		a.CreatedAt = time.UnixMilli(created)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Dashboard aggregates the counters and recent alerts for display.
func (s *Store) Dashboard(ctx context.Context) (*DashboardData, error) {
	alerts, err := s.ActiveAlertCount(ctx)
	if err != nil {
		return nil, err
	}
	incidents, err := s.OpenIncidentCount(ctx)
	if err != nil {
		return nil, err
	}
	hunts, err := s.ActiveHuntCount(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.RecentAlerts(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &DashboardData{
		ActiveAlerts:  alerts,
		OpenIncidents: incidents,
		ActiveHunts:   hunts,
		RecentAlerts:  recent,
	}, nil
}
