// Package advisor provides topic-routed vCISO guidance: compliance, risk
// management, security architecture, incident response, and threat
// intelligence playbooks rendered as plain-text advisories.
package advisor

import (
	"fmt"
	"strings"
)

// Categories maps each advisory area to the frameworks and practices it
// covers, for discovery surfaces like the web API.
var Categories = map[string][]string{
	"compliance":            {"SOC2", "ISO27001", "NIST", "PCI-DSS", "GDPR"},
	"risk_management":       {"risk_assessment", "business_continuity", "disaster_recovery"},
	"security_architecture": {"zero_trust", "network_segmentation", "access_control"},
	"incident_response":     {"playbooks", "communication", "forensics"},
	"threat_intelligence":   {"IOC_analysis", "threat_hunting", "attribution"},
}

// Guidance returns a full advisory for the topic. Routing matches the topic
// against the area keywords, falling back to general guidance.
func Guidance(topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nSECURITY ADVISORY: %s\n", strings.ToUpper(topic))
	b.WriteString(strings.Repeat("=", 50) + "\n")

	lower := strings.ToLower(topic)
	switch {
	case strings.Contains(lower, "compliance"):
		b.WriteString(complianceGuidance)
	case strings.Contains(lower, "risk"):
		b.WriteString(riskGuidance)
	case strings.Contains(lower, "architecture"):
		b.WriteString(architectureGuidance)
	case strings.Contains(lower, "incident"):
		b.WriteString(incidentGuidance)
	case strings.Contains(lower, "threat"):
		b.WriteString(threatIntelGuidance)
	default:
		fmt.Fprintf(&b, generalGuidance, topic)
	}
	return b.String()
}

const complianceGuidance = `
COMPLIANCE FRAMEWORK GUIDANCE:

SOC 2 Compliance:
  - Implement continuous monitoring controls
  - Establish access management procedures
  - Document security policies and procedures
  - Regular vulnerability assessments

ISO 27001 Implementation:
  - Conduct information security risk assessment
  - Establish Information Security Management System (ISMS)
  - Implement security controls from Annex A
  - Regular management reviews and audits

NIST Cybersecurity Framework:
  - IDENTIFY: Asset management and risk assessment
  - PROTECT: Access control and data security
  - DETECT: Continuous monitoring and detection
  - RESPOND: Incident response procedures
  - RECOVER: Business continuity planning

RECOMMENDATIONS:
- Start with risk assessment and gap analysis
- Prioritize high-impact, low-effort controls
- Implement continuous monitoring solutions
- Regular training and awareness programs
`

const riskGuidance = `
RISK MANAGEMENT STRATEGY:

Risk Assessment Process:
  - Identify critical assets and data
  - Analyze threat landscape and vulnerabilities
  - Calculate risk scores (Impact x Likelihood)
  - Prioritize risks based on business impact

Risk Treatment Options:
  - MITIGATE: Implement security controls
  - TRANSFER: Insurance and third-party services
  - ACCEPT: Document accepted risks
  - AVOID: Remove or change risky activities

Business Continuity Planning:
  - Identify critical business processes
  - Establish Recovery Time Objectives (RTO)
  - Develop alternate operating procedures
  - Regular testing and updates

RECOMMENDATIONS:
- Conduct quarterly risk assessments
- Maintain risk register with regular updates
- Align risk appetite with business objectives
- Test business continuity plans annually
`

const architectureGuidance = `
SECURITY ARCHITECTURE PRINCIPLES:

Zero Trust Architecture:
  - Never trust, always verify
  - Least privilege access principles
  - Micro-segmentation of networks
  - Continuous monitoring and validation

Network Segmentation:
  - Implement VLANs and subnets
  - Deploy next-generation firewalls
  - Create DMZ for external-facing services
  - Monitor inter-segment communication

Access Control Framework:
  - Multi-factor authentication (MFA)
  - Role-based access control (RBAC)
  - Privileged access management (PAM)
  - Regular access reviews and certification

RECOMMENDATIONS:
- Start with network visibility and mapping
- Implement MFA for all user accounts
- Deploy endpoint detection and response (EDR)
- Regular security architecture reviews
`

const incidentGuidance = `
INCIDENT RESPONSE FRAMEWORK:

Preparation Phase:
  - Develop incident response playbooks
  - Establish incident response team
  - Deploy monitoring and detection tools
  - Regular training and tabletop exercises

Detection and Analysis:
  - Continuous monitoring and alerting
  - Triage and prioritization procedures
  - Evidence collection and preservation
  - Initial impact assessment

Containment and Recovery:
  - Immediate containment actions
  - System isolation procedures
  - Malware removal and system restoration
  - Business operations recovery

Post-Incident Activities:
  - Lessons learned documentation
  - Process improvement recommendations
  - Stakeholder communication
  - Legal and regulatory reporting

RECOMMENDATIONS:
- Test incident response procedures quarterly
- Maintain updated contact lists
- Document all incident activities
- Conduct post-incident reviews
`

const threatIntelGuidance = `
THREAT INTELLIGENCE OPERATIONS:

Intelligence Collection:
  - Open source intelligence (OSINT)
  - Commercial threat feeds
  - Industry sharing partnerships
  - Internal telemetry and logs

Analysis and Processing:
  - IOC validation and enrichment
  - Threat actor attribution
  - Campaign tracking and analysis
  - Tactical, operational, and strategic intelligence

Threat Hunting Activities:
  - Hypothesis-driven hunting
  - Anomaly detection and investigation
  - Behavioral analytics
  - Proactive threat discovery

RECOMMENDATIONS:
- Implement threat intelligence platform
- Establish threat hunting program
- Regular threat landscape briefings
- Integrate intelligence with security tools
`

const generalGuidance = `
GENERAL SECURITY GUIDANCE: %s

Current Security Posture Assessment:
  - Conduct comprehensive security audit
  - Identify gaps in current controls
  - Benchmark against industry standards
  - Prioritize remediation efforts

Recommended Security Controls:
  - Implement defense-in-depth strategy
  - Deploy security monitoring solutions
  - Establish security awareness training
  - Regular vulnerability assessments

Security Operations:
  - 24/7 security monitoring
  - Incident response procedures
  - Threat intelligence integration
  - Regular security metrics reporting

RECOMMENDATIONS:
- Start with security fundamentals
- Implement continuous monitoring
- Regular security assessments
- Maintain security awareness culture
`
