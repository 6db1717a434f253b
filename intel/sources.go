package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/hellosecurity/riversos/learning"
)

// Default feed endpoints.
const (
	ThreatFoxURL = "https://threatfox.abuse.ch/export/json/recent/"
	URLhausURL   = "https://urlhaus.abuse.ch/downloads/json_recent/"
	CISAKEVURL   = "https://www.cisa.gov/known-exploited-vulnerabilities-catalog"
)

// Default insight blogs.
var DefaultInsightURLs = []string{
	"https://www.cybereason.com/blog",
	"https://blog.talosintelligence.com/",
}

// maxPerSource caps how many indicators one source contributes per cycle.
const maxPerSource = 2

var cveRe = regexp.MustCompile(`CVE-\d{4}-\d{4,7}`)

// ParseThreatFox extracts indicators from a ThreatFox recent-export payload.
func ParseThreatFox(body []byte) ([]learning.Observation, error) {
	var payload struct {
		Data []struct {
			IOC              string `json:"ioc"`
			IOCType          string `json:"ioc_type"`
			MalwarePrintable string `json:"malware_printable"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse threatfox: %w", err)
	}

	var out []learning.Observation
	for _, item := range payload.Data {
		desc := item.MalwarePrintable
		if desc == "" {
			desc = "Malicious indicator"
		}
		out = append(out, learning.Observation{
			IOC:         item.IOC,
			Type:        item.IOCType,
			Description: desc,
			Source:      "ThreatFox",
			Confidence:  0.8,
		})
		if len(out) == maxPerSource {
			break
		}
	}
	return out, nil
}

// ParseURLhaus extracts indicators from a URLhaus recent-URLs payload.
func ParseURLhaus(body []byte) ([]learning.Observation, error) {
	var payload []struct {
		URL    string `json:"url"`
		Threat string `json:"threat"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse urlhaus: %w", err)
	}

	var out []learning.Observation
	for _, item := range payload {
		threat := item.Threat
		if threat == "" {
			threat = "Unknown threat"
		}
		out = append(out, learning.Observation{
			IOC:         item.URL,
			Type:        "URL",
			Description: "Malicious URL - " + threat,
			Source:      "URLhaus",
			Confidence:  0.7,
		})
		if len(out) == maxPerSource {
			break
		}
	}
	return out, nil
}

// ParseCISA extracts known-exploited CVE identifiers from the KEV catalog
// page. The page is walked as HTML and its text content matched against the
// CVE pattern; duplicates are dropped.
func ParseCISA(body []byte) []learning.Observation {
	text := textContent(body)

	seen := make(map[string]bool)
	var out []learning.Observation
	for _, cve := range cveRe.FindAllString(text, -1) {
		if seen[cve] {
			continue
		}
		seen[cve] = true
		out = append(out, learning.Observation{
			IOC:         cve,
			Type:        "CVE",
			Description: "Known exploited vulnerability",
			Source:      "CISA",
			Confidence:  0.9,
		})
		if len(out) == maxPerSource {
			break
		}
	}
	return out
}

// textContent returns the concatenated text nodes of an HTML document.
// Falls back to the raw bytes when the document doesn't parse.
func textContent(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// indicatorSource fetches and parses one IOC feed.
type indicatorSource struct {
	name  string
	url   string
	parse func([]byte) ([]learning.Observation, error)
}

func (c *Collector) indicatorSources() []indicatorSource {
	return []indicatorSource{
		{"ThreatFox", c.config.ThreatFoxURL, ParseThreatFox},
		{"URLhaus", c.config.URLhausURL, ParseURLhaus},
		{"CISA", c.config.CISAKEVURL, func(b []byte) ([]learning.Observation, error) {
			return ParseCISA(b), nil
		}},
	}
}

// fetchSource retrieves and parses one feed, isolating its failures.
func (c *Collector) fetchSource(ctx context.Context, src indicatorSource) ([]learning.Observation, error) {
	body, err := c.fetcher.Get(ctx, src.url)
	if err != nil {
		return nil, err
	}
	return src.parse(body)
}
