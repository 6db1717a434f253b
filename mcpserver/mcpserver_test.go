package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/dbopen"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

var testMCPImpl = &mcp.Implementation{Name: "riversos-test", Version: "0.1.0"}

func mcpSession(t *testing.T) (*mcp.ClientSession, *learning.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	learnStore := learning.NewStore(dbopen.OpenMemory(t))
	if err := learnStore.Init(); err != nil {
		t.Fatalf("init learning schema: %v", err)
	}
	engine := learning.NewEngine(learnStore, learning.Config{}, logger)

	socStore := soc.NewStore(dbopen.OpenMemory(t))
	if err := socStore.Init(); err != nil {
		t.Fatalf("init soc schema: %v", err)
	}
	dash := dashboard.New(dashboard.Config{}, socStore, engine, logger)

	srv := NewService(engine, dash).NewServer()

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session, engine
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// WHAT: the adaptive-response tool serves learned patterns and reports when
// nothing matches yet.
func TestMCPAdaptiveResponse(t *testing.T) {
	session, engine := mcpSession(t)
	ctx := context.Background()

	cold := callTool(t, session, "riversos_adaptive_response", map[string]any{"query": "ransomware"})
	if !strings.Contains(cold, "No learned pattern") {
		t.Errorf("cold response = %q", cold)
	}

	engine.RecordInteraction(ctx, "ransomware playbook steps", "Isolate hosts, preserve evidence, notify stakeholders.", 0.9)

	warm := callTool(t, session, "riversos_adaptive_response", map[string]any{"query": "ransomware"})
	if !strings.Contains(warm, "Isolate hosts") {
		t.Errorf("warm response = %q", warm)
	}
}

// WHAT: the dashboard tool returns the snapshot as JSON.
func TestMCPDashboard(t *testing.T) {
	session, _ := mcpSession(t)

	text := callTool(t, session, "riversos_dashboard", map[string]any{})

	var snap struct {
		ActiveAlerts int    `json:"active_alerts"`
		Expertise    string `json:"expertise"`
	}
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.ActiveAlerts != 0 {
		t.Errorf("active alerts = %d, want 0", snap.ActiveAlerts)
	}
	if !strings.Contains(snap.Expertise, "domains active") {
		t.Errorf("expertise = %q", snap.Expertise)
	}
}

// WHAT: the advisory tool routes topics and grants architecture expertise.
func TestMCPAdvisory(t *testing.T) {
	session, engine := mcpSession(t)

	text := callTool(t, session, "riversos_advisory", map[string]any{"topic": "compliance"})
	if !strings.Contains(text, "COMPLIANCE FRAMEWORK GUIDANCE") {
		t.Errorf("advisory = %q", text[:80])
	}

	rec, err := engine.Store().GetExpertise(context.Background(), "security_architecture")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.ExperiencePoints != 10 {
		t.Errorf("advisory grant = %+v, want 10 exp", rec)
	}
}

// WHAT: reported observations run through dedup and count pattern groups.
func TestMCPReportObservations(t *testing.T) {
	session, engine := mcpSession(t)

	obs := []map[string]any{
		{"type": "IP", "ioc": "1.2.3.4", "description": "C2 beacon", "source": "EDR", "confidence": 0.8},
		{"type": "IP", "ioc": "1.2.3.4", "description": "C2 beacon", "source": "EDR", "confidence": 0.8},
	}
	text := callTool(t, session, "riversos_report_observations", map[string]any{"observations": obs})

	var resp struct {
		Processed     int `json:"processed"`
		PatternGroups int `json:"pattern_groups"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Processed != 2 {
		t.Errorf("processed = %d, want 2", resp.Processed)
	}
	if resp.PatternGroups != 1 {
		t.Errorf("pattern groups = %d, want 1 (identical observations collapse)", resp.PatternGroups)
	}

	// Both sightings still persist as threat rows.
	rows, err := engine.Store().ThreatRows(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("threat rows = %d, want 2", len(rows))
	}
}

// WHAT: missing required arguments surface as tool errors, not transport
// failures.
func TestMCPToolErrors(t *testing.T) {
	session, _ := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "riversos_advisory",
		Arguments: map[string]any{"topic": ""},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("empty topic should produce a tool error")
	}
}
