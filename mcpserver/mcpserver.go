// Package mcpserver exposes the vCISO as MCP tools so agent hosts can query
// adaptive responses, the dashboard, advisories, and report observations.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hellosecurity/riversos/advisor"
	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/learning"
)

// Service bundles the components the MCP tools operate on.
type Service struct {
	engine *learning.Engine
	dash   *dashboard.Dashboard
}

// NewService creates a Service.
func NewService(engine *learning.Engine, dash *dashboard.Dashboard) *Service {
	return &Service{engine: engine, dash: dash}
}

// NewServer builds the MCP server with all tools registered.
func (svc *Service) NewServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "riversos",
		Version: "1.0.0",
	}, nil)
	svc.registerAdaptiveResponse(srv)
	svc.registerDashboard(srv)
	svc.registerAdvisory(srv)
	svc.registerReportObservations(srv)
	return srv
}

// Run serves MCP over stdio until ctx ends.
func (svc *Service) Run(ctx context.Context) error {
	return svc.NewServer().Run(ctx, &mcp.StdioTransport{})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool wires a typed endpoint onto the server: decode arguments, run,
// marshal the result as text content. Endpoint errors become tool errors,
// never protocol errors.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := endpoint(ctx, &p)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		text, ok := resp.(string)
		if !ok {
			data, mErr := json.Marshal(resp)
			if mErr != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("marshal: %w", mErr))
				return &res, nil
			}
			text = string(data)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	})
}

func (svc *Service) registerAdaptiveResponse(srv *mcp.Server) {
	type req struct {
		Query string `json:"query"`
	}

	tool := &mcp.Tool{
		Name:        "riversos_adaptive_response",
		Description: "Answer a security query using learned conversation patterns, enhanced by domain expertise",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Security question or topic"},
		}, []string{"query"}),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		query := strings.TrimSpace(p.Query)
		if query == "" {
			return nil, errors.New("query is required")
		}
		response, ok := svc.engine.AdaptiveResponse(ctx, query)
		if !ok {
			svc.engine.RecordInteraction(ctx, query, "no_pattern_matched", 0.3)
			return "No learned pattern matches this query yet. Interact more to build expertise.", nil
		}
		svc.engine.RecordInteraction(ctx, query, response, 0.7)
		return response, nil
	})
}

func (svc *Service) registerDashboard(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "riversos_dashboard",
		Description: "Current SOC and learning snapshot: alert/incident/hunt counts, recent alerts, expertise summary",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, _ *req) (any, error) {
		return svc.dash.Snapshot(ctx)
	})
}

func (svc *Service) registerAdvisory(srv *mcp.Server) {
	type req struct {
		Topic string `json:"topic"`
	}

	tool := &mcp.Tool{
		Name:        "riversos_advisory",
		Description: "Security advisory guidance for a topic: compliance, risk, architecture, incident, threat, or general",
		InputSchema: inputSchema(map[string]any{
			"topic": map[string]any{"type": "string", "description": "Advisory topic"},
		}, []string{"topic"}),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		topic := strings.TrimSpace(p.Topic)
		if topic == "" {
			return nil, errors.New("topic is required")
		}
		svc.engine.GrantExperience(ctx, "security_architecture", 10)
		return advisor.Guidance(topic), nil
	})
}

func (svc *Service) registerReportObservations(srv *mcp.Server) {
	type req struct {
		Observations []learning.Observation `json:"observations"`
	}

	tool := &mcp.Tool{
		Name:        "riversos_report_observations",
		Description: "Report threat observations for deduplication, confidence scoring, and persistence",
		InputSchema: inputSchema(map[string]any{
			"observations": map[string]any{
				"type":        "array",
				"description": "Threat observations",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":        map[string]any{"type": "string"},
						"ioc":         map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"source":      map[string]any{"type": "string"},
						"confidence":  map[string]any{"type": "number"},
					},
				},
			},
		}, []string{"observations"}),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		if len(p.Observations) == 0 {
			return nil, errors.New("observations are required")
		}
		svc.engine.ProcessObservations(ctx, p.Observations)
		return map[string]any{
			"processed":      len(p.Observations),
			"pattern_groups": svc.engine.Summary(ctx).PatternGroups,
		}, nil
	})
}
