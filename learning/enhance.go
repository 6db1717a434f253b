package learning

import (
	"context"
	"strings"
)

// Canned enhancement sentences appended when a domain's skill level exceeds
// the enhancement threshold.
const (
	enhancementThreshold = 50

	threatIntelSentence      = "Based on advanced threat analysis patterns..."
	incidentResponseSentence = "Drawing from extensive incident response experience..."
)

// enhanceOrder fixes the domain-check order: threat_intelligence first, then
// incident_response.
var enhanceOrder = []struct {
	domain   string
	sentence string
}{
	{DomainThreatIntelligence, threatIntelSentence},
	{DomainIncidentResponse, incidentResponseSentence},
}

// enhance appends expertise-conditioned suffix text to a matched pattern.
// Pure function over current expertise state: deterministic given store
// contents, no randomness.
func (e *Engine) enhance(ctx context.Context, base string) (string, error) {
	records, err := e.store.ListExpertise(ctx)
	if err != nil {
		return "", err
	}

	levels := make(map[string]int, len(records))
	for _, rec := range records {
		levels[rec.Domain] = rec.SkillLevel
	}

	var enhancements []string
	for _, entry := range enhanceOrder {
		if levels[entry.domain] > enhancementThreshold {
			enhancements = append(enhancements, entry.sentence)
		}
	}
	if len(enhancements) == 0 {
		return base, nil
	}
	return base + " " + strings.Join(enhancements, " "), nil
}
