// Package briefing assembles the daily threat intelligence briefing from
// collected indicators and research insights, and writes it as text and PDF
// artifacts under the output directory.
package briefing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hellosecurity/riversos/intel"
	"github.com/hellosecurity/riversos/learning"
)

// Config configures a Generator.
type Config struct {
	Company   string // Default: "Hello Security LLC".
	Tagline   string // Default: "Say Hello to Your Expert Cybersecurity Team".
	Contact   string // Default: "info@hellosecurityllc.com".
	OutputDir string // Default: "output".

	// Denylist terms that fail moderation. Case-insensitive substring match.
	Denylist []string
}

func (c *Config) defaults() {
	if c.Company == "" {
		c.Company = "Hello Security LLC"
	}
	if c.Tagline == "" {
		c.Tagline = "Say Hello to Your Expert Cybersecurity Team"
	}
	if c.Contact == "" {
		c.Contact = "info@hellosecurityllc.com"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
}

// Generator renders daily briefings.
type Generator struct {
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{config: cfg, logger: logger, now: time.Now}
}

// BuildText assembles the briefing body: header, IOC blocks, insights,
// numbered vCISO recommendations, executive summary, footer.
func (g *Generator) BuildText(iocs []learning.Observation, insights []intel.Insight) string {
	today := g.now().Format("2006-01-02")

	recommendations := []string{
		"Block all identified IOCs at network perimeter and endpoint level",
		"Monitor for similar threat patterns in your environment",
		"Update threat intelligence feeds and security tools",
		"Contact " + g.config.Contact + " for advanced threat hunting support",
		"Review and update incident response procedures",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s - Daily Threat Intelligence Briefing\n", g.config.Company)
	fmt.Fprintf(&b, "%s\n", g.config.Tagline)
	fmt.Fprintf(&b, "Generated: %s\n\n", today)

	b.WriteString("=== INDICATORS OF COMPROMISE (IOCs) ===\n")
	for i, ioc := range iocs {
		fmt.Fprintf(&b, "\nIOC %d: %s\n", i+1, ioc.IOC)
		fmt.Fprintf(&b, "Type: %s\n", ioc.Type)
		fmt.Fprintf(&b, "Description: %s\n", ioc.Description)
		fmt.Fprintf(&b, "Source: %s\n", ioc.Source)
	}

	b.WriteString("\n=== THREAT INTELLIGENCE INSIGHTS ===\n")
	b.WriteString(joinInsights(insights))
	b.WriteString("\n\n=== vCISO RECOMMENDATIONS ===\n")
	for i, rec := range recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	b.WriteString("\n=== EXECUTIVE SUMMARY ===\n")
	fmt.Fprintf(&b, "Today's threat landscape analysis reveals %d critical indicators of compromise requiring immediate attention. ", len(iocs))
	b.WriteString("The threat intelligence indicates ongoing malicious activity across multiple vectors. ")
	b.WriteString("Our vCISO recommendations focus on immediate IOC blocking, enhanced monitoring, and proactive threat hunting.\n\n")
	fmt.Fprintf(&b, "For immediate assistance or advanced threat analysis, contact our expert team at %s.\n\n", g.config.Contact)
	fmt.Fprintf(&b, "%s\n---\n", g.config.Tagline)
	fmt.Fprintf(&b, "RiversOS Digital vCISO System - %s\n", g.config.Company)

	return b.String()
}

// joinInsights flattens insight texts into a single paragraph.
func joinInsights(insights []intel.Insight) string {
	texts := make([]string, 0, len(insights))
	for _, in := range insights {
		texts = append(texts, in.Text)
	}
	return strings.Join(texts, " ")
}

// Moderate reports whether the briefing body passes the content gate. A body
// matching any denylist term is rejected.
func (g *Generator) Moderate(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range g.config.Denylist {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			g.logger.Warn("briefing failed moderation", "term", term)
			return false
		}
	}
	return true
}

// fallbackText replaces a briefing that failed moderation.
func (g *Generator) fallbackText() string {
	return fmt.Sprintf("Daily security briefing temporarily unavailable. Contact %s for assistance.", g.config.Contact)
}

// Generate builds the briefing, runs moderation, and writes the text and PDF
// artifacts. The briefing text is returned even when a write fails: artifact
// errors are logged and degrade, the content itself is the product.
func (g *Generator) Generate(iocs []learning.Observation, insights []intel.Insight) string {
	text := g.BuildText(iocs, insights)
	if !g.Moderate(text) {
		text = g.fallbackText()
	}

	today := g.now().Format("2006-01-02")
	if err := os.MkdirAll(g.config.OutputDir, 0o755); err != nil {
		g.logger.Error("create output dir failed", "error", err)
		return text
	}

	txtPath := filepath.Join(g.config.OutputDir, fmt.Sprintf("briefing-%s.txt", today))
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		g.logger.Error("write text briefing failed", "path", txtPath, "error", err)
	} else {
		g.logger.Info("text briefing saved", "path", txtPath)
	}

	pdfPath := filepath.Join(g.config.OutputDir, fmt.Sprintf("briefing-%s.pdf", today))
	if err := writePDF(pdfPath, text); err != nil {
		g.logger.Error("write pdf briefing failed", "path", pdfPath, "error", err)
	} else {
		g.logger.Info("pdf briefing saved", "path", pdfPath)
	}

	return text
}
