package soc

import "time"

// Alert severity levels, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Alert lifecycle statuses.
const (
	AlertOpen      = "open"
	AlertEscalated = "escalated"
	AlertResolved  = "resolved"
)

// Incident lifecycle statuses.
const (
	IncidentInvestigating = "investigating"
	IncidentContained     = "contained"
	IncidentResolved      = "resolved"
)

// Hunt lifecycle statuses.
const (
	HuntActive    = "active"
	HuntCompleted = "completed"
)

// Alert is one security alert awaiting triage.
type Alert struct {
	ID          string
	AlertType   string
	Severity    string
	Source      string
	Description string
	Status      string
	AssignedTo  string
	Resolution  string
	CreatedAt   time.Time
}

// Incident is an escalated alert under investigation.
type Incident struct {
	ID              string
	Title           string
	Severity        string
	Category        string
	Description     string
	Status          string
	AssignedAnalyst string
	Timeline        string
	Resolution      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Hunt is one hypothesis-driven threat hunting activity.
type Hunt struct {
	ID          string
	Name        string
	Hypothesis  string
	IOCs        []string
	Findings    string
	Status      string
	StartedAt   time.Time
	CompletedAt time.Time
}

// DashboardData aggregates the counters the dashboard displays.
type DashboardData struct {
	ActiveAlerts  int
	OpenIncidents int
	ActiveHunts   int
	RecentAlerts  []*Alert
}

// severityRank orders severities for display; unknown severities sort last.
func severityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	}
	return 5
}
