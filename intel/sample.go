package intel

import "github.com/hellosecurity/riversos/learning"

// SampleIOCs stands in for the live feeds when every source is unreachable,
// so downstream briefings and learning always have material to work with.
func SampleIOCs() []learning.Observation {
	return []learning.Observation{
		{
			IOC:         "192.168.1.100",
			Type:        "IP",
			Description: "Known C2 server",
			Source:      "Sample Data",
			Confidence:  0.9,
		},
		{
			IOC:         "malware.example.com",
			Type:        "Domain",
			Description: "Malware distribution site",
			Source:      "Sample Data",
			Confidence:  0.85,
		},
		{
			IOC:         "5d41402abc4b2a76b9719d911017c592",
			Type:        "MD5",
			Description: "Ransomware payload hash",
			Source:      "Sample Data",
			Confidence:  0.95,
		},
	}
}

// SampleInsights stands in for the blog scrape when no insight source yields
// usable sentences.
func SampleInsights() []Insight {
	return []Insight{
		{Text: "Ransomware groups are increasingly targeting cloud backup infrastructure before encryption.", Source: "Sample Data"},
		{Text: "Phishing campaigns now routinely abuse legitimate file-sharing services to bypass mail filters.", Source: "Sample Data"},
		{Text: "Attackers are exploiting unpatched edge devices within days of vulnerability disclosure.", Source: "Sample Data"},
		{Text: "Supply chain compromises remain a leading initial access vector for targeted intrusions.", Source: "Sample Data"},
		{Text: "Credential stuffing attacks continue to succeed against accounts without multi-factor authentication.", Source: "Sample Data"},
	}
}
