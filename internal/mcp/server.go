package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"pulse-mcp/internal/jira"
	"pulse-mcp/internal/snapshot"
	"pulse-mcp/internal/stats"

	"github.com/rs/zerolog/log"
)

// JSONRPCRequest represents a standard MCP/JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard MCP/JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Server holds the state for the MCP server.
type Server struct {
	jira       jira.Client
	snapshots  *snapshot.Store
	thresholds stats.InsightThresholds
	charts     bool
}

// NewServer creates a new MCP server.
func NewServer(client jira.Client, snapshots *snapshot.Store, thresholds stats.InsightThresholds) *Server {
	return &Server{
		jira:       client,
		snapshots:  snapshots,
		thresholds: thresholds,
	}
}

// EnableCharts turns on Mermaid chart rendering in tool responses.
func (s *Server) EnableCharts() *Server {
	s.charts = true
	return s
}

// Serve starts the JSON-RPC loop over Stdio.
func (s *Server) Serve() error {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal request")
			continue
		}

		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req JSONRPCRequest) {
	var result interface{}
	var errRes interface{}

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"serverInfo": map[string]interface{}{
				"name":    "pulse-mcp",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, errRes = s.callTool(req.Params)
	default:
		errRes = map[string]interface{}{
			"code":    -32601,
			"message": fmt.Sprintf("Method %s not found", req.Method),
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errRes,
	}

	out, _ := json.Marshal(resp)
	fmt.Fprintf(os.Stdout, "%s\n", out)
}

func (s *Server) callTool(params json.RawMessage) (interface{}, interface{}) {
	var call struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, map[string]interface{}{"code": -32602, "message": "Invalid params"}
	}

	var data interface{}
	var err error

	switch call.Name {
	case "get_project_health":
		data, err = s.handleProjectHealth(toolArgs(call.Arguments))
	case "forecast_bug_resolution":
		data, err = s.handleBugForecast(toolArgs(call.Arguments))
	case "get_quality_insights":
		data, err = s.handleQualityInsights(toolArgs(call.Arguments))
	case "get_weekly_metrics":
		data, err = s.handleWeeklyMetrics(toolArgs(call.Arguments))
	case "get_metric_history":
		data, err = s.handleMetricHistory(call.Arguments)
	case "cleanup_snapshots":
		data, err = s.handleCleanupSnapshots(call.Arguments)
	default:
		return nil, map[string]interface{}{"code": -32601, "message": "Tool not found"}
	}

	if err != nil {
		return nil, map[string]interface{}{"code": -32000, "message": err.Error()}
	}

	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": s.formatResult(data),
			},
		},
	}, nil
}

func (s *Server) formatResult(data interface{}) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
