// Package chat runs the interactive vCISO console: command dispatch, the
// adaptive-response fallback, and per-command expertise grants feeding the
// learning engine.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hellosecurity/riversos/advisor"
	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/intel"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

// Expertise domains granted outside the learning package's own constants.
const (
	domainMalwareAnalysis      = "malware_analysis"
	domainSecurityArchitecture = "security_architecture"
	domainCompliance           = "compliance"
)

const contextWindow = 10

// Config configures a Session.
type Config struct {
	Contact string // Default: "info@hellosecurityllc.com".
	Tagline string // Default: "Say Hello to Your Expert Cybersecurity Team".
	Prompt  string // Default: "RiversOS> ".
}

func (c *Config) defaults() {
	if c.Contact == "" {
		c.Contact = "info@hellosecurityllc.com"
	}
	if c.Tagline == "" {
		c.Tagline = "Say Hello to Your Expert Cybersecurity Team"
	}
	if c.Prompt == "" {
		c.Prompt = "RiversOS> "
	}
}

// Session is one interactive console session. It reads commands from In,
// writes responses to Out, and grants expertise for every handled command.
type Session struct {
	config   Config
	engine   *learning.Engine
	socStore *soc.Store
	dash     *dashboard.Dashboard
	iocs     []learning.Observation
	insights []intel.Insight
	logger   *slog.Logger
	now      func() time.Time

	start        time.Time
	interactions int
	successful   int
	recent       []string
}

// NewSession creates a Session over the collected intelligence.
func NewSession(cfg Config, engine *learning.Engine, socStore *soc.Store, dash *dashboard.Dashboard,
	iocs []learning.Observation, insights []intel.Insight, logger *slog.Logger) *Session {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		config:   cfg,
		engine:   engine,
		socStore: socStore,
		dash:     dash,
		iocs:     iocs,
		insights: insights,
		logger:   logger,
		now:      time.Now,
	}
	s.start = s.now()
	return s
}

// Run reads commands until exit, EOF, or ctx cancellation.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, s.banner())

	s.start = s.now()
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, s.config.Prompt)
		if !scanner.Scan() {
			break
		}
		response, done := s.Handle(ctx, strings.TrimSpace(scanner.Text()))
		fmt.Fprint(out, response)
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	// EOF counts as an exit so the session still records its summary.
	fmt.Fprint(out, s.sessionSummary(ctx))
	return nil
}

// Handle dispatches one command and returns the response text plus whether
// the session is over. Commands are matched case-insensitively; unmatched
// input first tries a learned adaptive response, then the natural-language
// fallback.
func (s *Session) Handle(ctx context.Context, input string) (string, bool) {
	if input == "" {
		return "", false
	}
	s.interactions++
	lower := strings.ToLower(input)

	adaptive, adapted := s.engine.AdaptiveResponse(ctx, input)

	var response string
	switch {
	case lower == "exit":
		return s.sessionSummary(ctx), true

	case lower == "threat" || lower == "ioc" || lower == "threats" || lower == "iocs":
		response = s.threatResponse()
		s.engine.GrantExperience(ctx, learning.DomainThreatIntelligence, 10)
		s.engine.RecordInteraction(ctx, input, response, 0.8)
		s.successful++

	case lower == "advice" || lower == "recommendation" || lower == "recommendations":
		response = s.adaptiveAdvice()
		s.engine.GrantExperience(ctx, learning.DomainIncidentResponse, 8)
		s.engine.RecordInteraction(ctx, input, response, 0.9)
		s.successful++

	case strings.HasPrefix(lower, "analyze "):
		query := strings.TrimSpace(input[len("analyze "):])
		if query == "" {
			response = "Please provide a query to analyze. Example: analyze phishing campaign\n"
			break
		}
		response = s.deepAnalysis(query)
		s.engine.GrantExperience(ctx, domainMalwareAnalysis, 15)
		s.engine.RecordInteraction(ctx, input, response, 0.85)
		s.successful++

	case lower == "learn":
		response = s.learningProgress(ctx)
		s.successful++

	case lower == "dashboard":
		rendered, err := s.dash.Render(ctx)
		if err != nil {
			s.logger.Error("dashboard render failed", "error", err)
			rendered = "Dashboard temporarily unavailable.\n"
		}
		response = rendered
		s.engine.GrantExperience(ctx, learning.DomainThreatIntelligence, 5)
		s.engine.RecordInteraction(ctx, input, "dashboard_viewed", 0.8)
		s.successful++

	case lower == "soc" || lower == "soc ops" || lower == "operations":
		response = s.socOperations(ctx)
		s.engine.GrantExperience(ctx, learning.DomainIncidentResponse, 12)
		s.engine.RecordInteraction(ctx, input, response, 0.9)
		s.successful++

	case strings.HasPrefix(lower, "advisory "):
		topic := strings.TrimSpace(input[len("advisory "):])
		if topic == "" {
			response = "Please specify a topic for security advisory. Example: advisory compliance\n"
			break
		}
		response = advisor.Guidance(topic)
		s.engine.GrantExperience(ctx, domainSecurityArchitecture, 10)
		s.engine.RecordInteraction(ctx, input, response, 0.85)
		s.successful++

	case lower == "incident" || lower == "incident response" || lower == "ir":
		response = s.incidentResponse()
		s.engine.GrantExperience(ctx, learning.DomainIncidentResponse, 15)
		s.engine.RecordInteraction(ctx, input, response, 0.9)
		s.successful++

	case lower == "hunt" || lower == "threat hunt" || lower == "hunting":
		response = s.threatHunting(ctx)
		s.engine.GrantExperience(ctx, learning.DomainThreatIntelligence, 20)
		s.engine.RecordInteraction(ctx, input, response, 0.9)
		s.successful++

	case lower == "compliance" || lower == "regulatory" || lower == "audit":
		response = s.complianceGuidance()
		s.engine.GrantExperience(ctx, domainCompliance, 12)
		s.engine.RecordInteraction(ctx, input, response, 0.8)
		s.successful++

	case lower == "help" || lower == "assist" || lower == "assistance":
		response = s.contextualHelp()
		s.successful++

	case adapted:
		response = fmt.Sprintf("\n[Adaptive Response] %s\nThis response was learned from previous interactions.\n\n", adaptive)
		s.engine.RecordInteraction(ctx, input, adaptive, 0.7)
		s.successful++

	default:
		response = s.naturalLanguage(input)
		s.engine.RecordInteraction(ctx, input, response, 0.6)
	}

	s.remember(input)
	return response, false
}

// remember feeds the engine's conversation memory and keeps the last few
// inputs locally for contextual help.
func (s *Session) remember(input string) {
	s.engine.Remember(input)
	s.recent = append(s.recent, input)
	if len(s.recent) > contextWindow {
		s.recent = s.recent[len(s.recent)-contextWindow:]
	}
}

// sessionSummary closes out the session: reports counters and records the
// session effectiveness as one more learned interaction.
func (s *Session) sessionSummary(ctx context.Context) string {
	duration := s.now().Sub(s.start)
	var effectiveness float64
	if s.interactions > 0 {
		effectiveness = float64(s.successful) / float64(s.interactions)
	}

	s.engine.RecordInteraction(ctx,
		fmt.Sprintf("session_summary_%d", s.now().Unix()),
		"effectiveness_"+strconv.FormatFloat(effectiveness, 'g', -1, 64),
		effectiveness)

	var b strings.Builder
	b.WriteString("\nSession Summary:\n")
	fmt.Fprintf(&b, "   Duration: %.1f seconds\n", duration.Seconds())
	fmt.Fprintf(&b, "   Interactions: %d\n", s.interactions)
	fmt.Fprintf(&b, "   Effectiveness: %.2f%%\n", effectiveness*100)
	b.WriteString("   Learning Progress: Enhanced!\n")
	b.WriteString("\nThank you for using RiversOS. I'm getting smarter with each conversation!\n")
	return b.String()
}

func (s *Session) banner() string {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("RiversOS Advanced Self-Learning Digital vCISO\n")
	b.WriteString(s.config.Tagline + "\n")
	b.WriteString(rule + "\n")
	b.WriteString("Available commands:\n")
	b.WriteString("  'threat' or 'ioc' - View latest IOCs with adaptive analysis\n")
	b.WriteString("  'advice' - Get evolving vCISO recommendations\n")
	b.WriteString("  'analyze <query>' - Deep threat analysis with learning\n")
	b.WriteString("  'dashboard' - Interactive threat dashboard\n")
	b.WriteString("  'soc' - SOC operations and management\n")
	b.WriteString("  'advisory <topic>' - Security advisory and guidance\n")
	b.WriteString("  'incident' - Incident response support\n")
	b.WriteString("  'hunt' - Threat hunting operations\n")
	b.WriteString("  'compliance' - Compliance and regulatory guidance\n")
	b.WriteString("  'learn' - Show learning progress and expertise levels\n")
	b.WriteString("  'help' - Get contextual assistance\n")
	b.WriteString("  'exit' - End session\n")
	b.WriteString(rule + "\n\n")
	return b.String()
}
