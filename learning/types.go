package learning

import "time"

// ConversationPattern is a stored (input text → response text) association
// with quality metadata. Keyed by the exact input text; replaced on write.
type ConversationPattern struct {
	Input       string
	Response    string
	SuccessRate float64
	UsageCount  int
	LastUsed    time.Time
}

// Metric is one append-only learning metric sample.
type Metric struct {
	Name      string
	Value     float64
	Timestamp time.Time
}

// ExpertiseRecord tracks skill evolution for one knowledge domain.
// SkillLevel stays in [0,100]; ExperiencePoints only grows.
type ExpertiseRecord struct {
	Domain           string
	SkillLevel       int
	ExperiencePoints int
	LastUpdated      time.Time
}

// ThreatRow is one persisted threat-intelligence observation.
type ThreatRow struct {
	ThreatType string
	IOC        string
	Confidence float64
	Source     string
	Timestamp  time.Time
}

// Observation is a raw threat observation as delivered by collectors.
// All fields are optional; Process applies documented defaults.
type Observation struct {
	Type        string  `json:"type,omitempty"`
	IOC         string  `json:"ioc,omitempty"`
	Description string  `json:"description,omitempty"`
	Source      string  `json:"source,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Domains with a canned enhancement sentence, in fixed check order.
const (
	DomainThreatIntelligence = "threat_intelligence"
	DomainIncidentResponse   = "incident_response"
)
