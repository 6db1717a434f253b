package chat

import (
	"context"
	"fmt"
	"strings"
)

// threatResponse lists the current IOCs with confidence-derived levels.
func (s *Session) threatResponse() string {
	var b strings.Builder
	b.WriteString("\nAdvanced Threat Intelligence Analysis:\n")
	b.WriteString(strings.Repeat("=", 45) + "\n")

	for i, ioc := range s.iocs {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, ioc.IOC, ioc.Type)
		fmt.Fprintf(&b, "   Confidence: %.1f%%\n", ioc.Confidence*100)
		fmt.Fprintf(&b, "   Description: %s\n", ioc.Description)
		fmt.Fprintf(&b, "   Source: %s\n", ioc.Source)
		fmt.Fprintf(&b, "   Threat Level: %s\n\n", threatLevel(ioc.Confidence))
	}

	b.WriteString("Adaptive Recommendations:\n")
	b.WriteString("- Immediate blocking at network perimeter\n")
	b.WriteString("- Enhanced monitoring for similar patterns\n")
	b.WriteString("- Cross-reference with internal threat feeds\n")
	fmt.Fprintf(&b, "- Contact expert team: %s\n\n", s.config.Contact)
	return b.String()
}

func threatLevel(confidence float64) string {
	switch {
	case confidence > 0.7:
		return "HIGH"
	case confidence > 0.4:
		return "MEDIUM"
	}
	return "LOW"
}

// adaptiveAdvice renders the immediate / strategic / proactive advice tiers.
func (s *Session) adaptiveAdvice() string {
	tiers := []struct {
		name string
		recs []string
	}{
		{"Immediate", []string{
			"Block all identified IOCs across security infrastructure",
			"Activate enhanced monitoring protocols",
			"Brief security team on current threat landscape",
		}},
		{"Strategic", []string{
			"Review and update incident response procedures",
			"Enhance threat hunting capabilities",
			"Evaluate security tool effectiveness",
		}},
		{"Proactive", []string{
			"Conduct vulnerability assessments",
			"Implement threat intelligence automation",
			"Develop custom detection rules",
		}},
	}

	var b strings.Builder
	b.WriteString("\nAdaptive vCISO Recommendations:\n")
	b.WriteString(strings.Repeat("=", 35) + "\n")
	for _, tier := range tiers {
		fmt.Fprintf(&b, "\n%s Actions:\n", tier.name)
		for i, rec := range tier.recs {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
		}
	}
	fmt.Fprintf(&b, "\nExpert consultation: %s\n", s.config.Contact)
	b.WriteString("These recommendations adapt based on threat patterns and learning.\n\n")
	return b.String()
}

// deepAnalysis routes the query to a topical analysis block.
func (s *Session) deepAnalysis(query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nDeep Analysis: %s\n", query)
	b.WriteString(strings.Repeat("=", 40) + "\n")

	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "phishing", "email", "social engineering"):
		b.WriteString("Phishing Campaign Analysis:\n")
		b.WriteString("- Observed increase in sophisticated phishing attempts\n")
		b.WriteString("- Recommendation: Implement advanced email filtering\n")
		b.WriteString("- Training: Enhance user awareness programs\n")
	case containsAny(lower, "malware", "ransomware", "virus"):
		b.WriteString("Malware Analysis:\n")
		b.WriteString("- Current malware trends show evolution in tactics\n")
		b.WriteString("- Recommendation: Update endpoint detection rules\n")
		b.WriteString("- Response: Isolate affected systems immediately\n")
	case containsAny(lower, "network", "traffic", "connection"):
		b.WriteString("Network Analysis:\n")
		b.WriteString("- Monitor for suspicious network patterns\n")
		b.WriteString("- Recommendation: Implement network segmentation\n")
		b.WriteString("- Detection: Deploy advanced network monitoring\n")
	default:
		b.WriteString("General Security Analysis:\n")
		fmt.Fprintf(&b, "- Query: %s\n", query)
		b.WriteString("- Context: Analyzing against current threat intelligence\n")
		b.WriteString("- Recommendation: Comprehensive security assessment\n")
	}

	fmt.Fprintf(&b, "\nAnalysis based on %d IOCs and %d insights\n", len(s.iocs), len(s.insights))
	b.WriteString("This analysis improves with each interaction.\n\n")
	return b.String()
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// learningProgress renders per-domain skill bars plus the engine counters.
func (s *Session) learningProgress(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("\nLearning Progress & Expertise Levels:\n")
	b.WriteString(strings.Repeat("=", 45) + "\n")

	records, err := s.engine.Store().ListExpertise(ctx)
	if err != nil {
		s.logger.Error("list expertise failed", "error", err)
	}
	if len(records) > 0 {
		b.WriteString("Current Expertise Domains:\n")
		for _, rec := range records {
			filled := rec.SkillLevel / 10
			bar := strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
			fmt.Fprintf(&b, "  %s: [%s] %d%% (%d exp)\n",
				domainTitle(rec.Domain), bar, rec.SkillLevel, rec.ExperiencePoints)
		}
	} else {
		b.WriteString("Learning journey is just beginning!\n")
		b.WriteString("Interact more to see expertise development.\n")
	}

	summary := s.engine.Summary(ctx)
	b.WriteString("\nLearning Metrics:\n")
	fmt.Fprintf(&b, "- Conversation Memory: %d interactions\n", summary.MemoryLen)
	fmt.Fprintf(&b, "- Threat Patterns: %d unique patterns\n", summary.PatternGroups)
	fmt.Fprintf(&b, "- Learning History: %d records\n", summary.HistoryLen)

	b.WriteString("\nContinuous Improvement:\n")
	b.WriteString("- Each interaction enhances my capabilities\n")
	b.WriteString("- Learning from both successes and failures\n")
	b.WriteString("- Adapting responses based on effectiveness\n\n")
	return b.String()
}

// domainTitle turns snake_case domain names into display form.
func domainTitle(domain string) string {
	words := strings.Split(domain, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// socOperations reports current SOC counters and standing procedures.
func (s *Session) socOperations(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("\nSOC OPERATIONS MANAGEMENT\n")
	b.WriteString(strings.Repeat("=", 35) + "\n")

	data, err := s.socStore.Dashboard(ctx)
	if err != nil {
		s.logger.Error("soc dashboard failed", "error", err)
		b.WriteString("Current SOC Status: unavailable\n\n")
	} else {
		b.WriteString("Current SOC Status:\n")
		fmt.Fprintf(&b, "  - Active Alerts: %d\n", data.ActiveAlerts)
		fmt.Fprintf(&b, "  - Open Incidents: %d\n", data.OpenIncidents)
		fmt.Fprintf(&b, "  - Active Hunts: %d\n\n", data.ActiveHunts)
	}

	b.WriteString("SOC Operations Available:\n")
	b.WriteString("  - Alert triage and management\n")
	b.WriteString("  - Incident response coordination\n")
	b.WriteString("  - Threat hunting activities\n")
	b.WriteString("  - Security monitoring and analysis\n")
	b.WriteString("  - Escalation procedures\n\n")

	b.WriteString("SOC Best Practices:\n")
	b.WriteString("  - Maintain 24/7 monitoring coverage\n")
	b.WriteString("  - Implement tiered response procedures\n")
	b.WriteString("  - Regular metrics and KPI tracking\n")
	b.WriteString("  - Continuous analyst training\n")
	b.WriteString("  - Integration with threat intelligence\n\n")

	fmt.Fprintf(&b, "For SOC escalation: %s\n", s.config.Contact)
	return b.String()
}

// incidentResponse walks the six IR phases.
func (s *Session) incidentResponse() string {
	phases := []struct {
		name  string
		steps []string
	}{
		{"PREPARATION", []string{
			"Incident response team activation",
			"Communication channels established",
			"Tools and resources verified",
			"Initial stakeholder notification",
		}},
		{"IDENTIFICATION", []string{
			"Incident classification and severity assessment",
			"Evidence collection and preservation",
			"Initial scope and impact analysis",
			"Timeline establishment",
		}},
		{"CONTAINMENT", []string{
			"Immediate containment actions",
			"System isolation procedures",
			"Threat actor activity disruption",
			"Additional monitoring deployment",
		}},
		{"ERADICATION", []string{
			"Malware removal and system cleaning",
			"Vulnerability patching",
			"Security control improvements",
			"System hardening",
		}},
		{"RECOVERY", []string{
			"System restoration and validation",
			"Business operations resumption",
			"Enhanced monitoring implementation",
			"Stakeholder communication",
		}},
		{"LESSONS LEARNED", []string{
			"Post-incident analysis",
			"Process improvement recommendations",
			"Documentation updates",
			"Team training enhancements",
		}},
	}

	var b strings.Builder
	b.WriteString("\nINCIDENT RESPONSE SUPPORT\n")
	b.WriteString(strings.Repeat("=", 30) + "\n")
	b.WriteString("Incident Response Phases:\n\n")
	for i, phase := range phases {
		fmt.Fprintf(&b, "%d. %s\n", i+1, phase.name)
		for _, step := range phase.steps {
			fmt.Fprintf(&b, "   - %s\n", step)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Emergency Contact: %s\n", s.config.Contact)
	return b.String()
}

// threatHunting starts a hunt over the current IOC set and describes the
// hunting methodology.
func (s *Session) threatHunting(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("\nTHREAT HUNTING OPERATIONS\n")
	b.WriteString(strings.Repeat("=", 30) + "\n")
	b.WriteString("Current Threat Hunting Activities:\n\n")

	if len(s.iocs) > 0 {
		hypothesis := fmt.Sprintf("Investigating potential threats based on %d IOCs", len(s.iocs))
		iocValues := make([]string, 0, len(s.iocs))
		for _, ioc := range s.iocs {
			iocValues = append(iocValues, ioc.IOC)
		}
		name := "IOC Investigation " + s.now().Format("20060102")
		huntID, err := s.socStore.StartHunt(ctx, name, hypothesis, iocValues)
		if err != nil {
			s.logger.Error("start hunt failed", "error", err)
		} else {
			fmt.Fprintf(&b, "NEW HUNT INITIATED: #%s\n", huntID)
			fmt.Fprintf(&b, "   Hypothesis: %s\n", hypothesis)
			fmt.Fprintf(&b, "   IOCs under investigation: %d\n\n", len(s.iocs))
		}
	}

	b.WriteString("Threat Hunting Methodology:\n")
	b.WriteString("  - Hypothesis-driven investigations\n")
	b.WriteString("  - Behavioral analytics and anomaly detection\n")
	b.WriteString("  - IOC and TTP-based searches\n")
	b.WriteString("  - Proactive threat discovery\n")
	b.WriteString("  - Intelligence-driven hunting\n\n")

	b.WriteString("Hunt Focus Areas:\n")
	b.WriteString("  - Lateral movement detection\n")
	b.WriteString("  - Privilege escalation attempts\n")
	b.WriteString("  - Data exfiltration activities\n")
	b.WriteString("  - Persistence mechanism identification\n")
	b.WriteString("  - Command and control communications\n\n")

	b.WriteString("Hunting Tools and Techniques:\n")
	b.WriteString("  - SIEM query analysis\n")
	b.WriteString("  - Network traffic analysis\n")
	b.WriteString("  - Endpoint behavioral monitoring\n")
	b.WriteString("  - Memory forensics\n")
	b.WriteString("  - Threat intelligence correlation\n\n")

	fmt.Fprintf(&b, "Hunt coordination: %s\n", s.config.Contact)
	return b.String()
}

// complianceGuidance summarizes the major frameworks and assessment steps.
func (s *Session) complianceGuidance() string {
	frameworks := []struct {
		name   string
		points []string
	}{
		{"SOC 2 Type II", []string{
			"Security, availability, processing integrity",
			"Confidentiality and privacy controls",
			"Continuous monitoring requirements",
			"Annual audit and certification",
		}},
		{"ISO 27001:2022", []string{
			"Information Security Management System (ISMS)",
			"Risk-based approach to security",
			"93 security controls in Annex A",
			"Continuous improvement cycle",
		}},
		{"NIST Cybersecurity Framework", []string{
			"IDENTIFY: Asset and risk management",
			"PROTECT: Access control and data security",
			"DETECT: Continuous monitoring",
			"RESPOND: Incident response procedures",
			"RECOVER: Business continuity planning",
		}},
		{"GDPR Compliance", []string{
			"Data protection by design and default",
			"Data subject rights and consent",
			"Data breach notification requirements",
			"Privacy impact assessments",
		}},
		{"PCI DSS", []string{
			"Cardholder data protection",
			"Secure network and systems",
			"Regular vulnerability management",
			"Access control measures",
		}},
	}

	var b strings.Builder
	b.WriteString("\nCOMPLIANCE & REGULATORY GUIDANCE\n")
	b.WriteString(strings.Repeat("=", 35) + "\n")
	b.WriteString("Major Compliance Frameworks:\n\n")
	for _, fw := range frameworks {
		fmt.Fprintf(&b, "%s\n", fw.name)
		for _, p := range fw.points {
			fmt.Fprintf(&b, "   - %s\n", p)
		}
		b.WriteString("\n")
	}

	b.WriteString("Compliance Assessment Steps:\n")
	b.WriteString("  1. Gap analysis and current state assessment\n")
	b.WriteString("  2. Control implementation planning\n")
	b.WriteString("  3. Policy and procedure documentation\n")
	b.WriteString("  4. Staff training and awareness\n")
	b.WriteString("  5. Regular audits and assessments\n\n")

	fmt.Fprintf(&b, "Compliance support: %s\n", s.config.Contact)
	return b.String()
}

// contextualHelp tailors suggestions to the recent inputs.
func (s *Session) contextualHelp() string {
	var b strings.Builder
	b.WriteString("\nContextual Assistance:\n")
	b.WriteString(strings.Repeat("=", 25) + "\n")

	if len(s.recent) == 0 {
		b.WriteString("Welcome! I'm your advanced self-learning digital vCISO.\n")
		b.WriteString("I adapt and improve with every conversation.\n\n")
		b.WriteString("Try these commands:\n")
		b.WriteString("- 'threat' - View current threat intelligence\n")
		b.WriteString("- 'advice' - Get adaptive security recommendations\n")
		b.WriteString("- 'analyze <topic>' - Deep dive into security topics\n")
		b.WriteString("- 'learn' - See my learning progress\n")
	} else {
		b.WriteString("Based on our conversation, you might want to:\n")
		tail := s.recent
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		if anyContains(tail, "threat") {
			b.WriteString("- Try 'analyze threat landscape' for deeper insights\n")
		}
		if anyContains(tail, "advice") {
			b.WriteString("- Use 'analyze incident response' for specific guidance\n")
		}
		b.WriteString("- 'learn' - See how I've improved from our conversation\n")
	}

	b.WriteString("\nRemember: I learn from every interaction to serve you better!\n")
	fmt.Fprintf(&b, "For advanced support: %s\n\n", s.config.Contact)
	return b.String()
}

func anyContains(inputs []string, term string) bool {
	for _, in := range inputs {
		if strings.Contains(strings.ToLower(in), term) {
			return true
		}
	}
	return false
}

// naturalLanguage is the fallback for unrecognized input.
func (s *Session) naturalLanguage(input string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nProcessing: %s\n", input)
	b.WriteString(strings.Repeat("=", 30) + "\n")

	lower := strings.ToLower(input)
	switch {
	case containsAny(lower, "what", "how", "why", "when", "where"):
		b.WriteString("I understand you're asking a question.\n")
		b.WriteString("I'm learning to provide better answers with each interaction.\n\n")
		if strings.Contains(lower, "security") {
			b.WriteString("For security-related queries, try:\n")
			b.WriteString("- 'threat' - Current threat intelligence\n")
			b.WriteString("- 'advice' - Security recommendations\n")
			b.WriteString("- 'analyze security' - Deep analysis\n")
		}
	case containsAny(lower, "help", "assist", "support"):
		b.WriteString("I'm here to help!\n")
		b.WriteString("Try 'help' for contextual assistance.\n\n")
	default:
		b.WriteString("I'm analyzing your request and learning from it.\n")
		b.WriteString("For specific cybersecurity assistance, try:\n")
		b.WriteString("- 'threat' - Threat intelligence\n")
		b.WriteString("- 'advice' - Security recommendations\n")
		b.WriteString("- 'analyze <topic>' - Deep analysis\n\n")
	}

	b.WriteString("Each interaction helps me understand you better!\n\n")
	return b.String()
}
