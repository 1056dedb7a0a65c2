package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/store"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 200
)

// Server is the MCP server for the stub runner.
type Server struct {
	mcpServer *server.MCPServer
	registry  *flow.Registry
	broker    broker.Broker
	journal   store.Store
}

// NewServer creates a new MCP server over a started registry. brk is used by
// send_message and journal by recent_events; either may be nil, in which case
// the corresponding tool reports an error.
func NewServer(registry *flow.Registry, brk broker.Broker, journal store.Store) *Server {
	s := server.NewMCPServer(
		"stubrunner",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if registry == nil {
		registry = flow.NewRegistry()
	}

	srv := &Server{
		mcpServer: s,
		registry:  registry,
		broker:    brk,
		journal:   journal,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_flows",
		mcp.WithDescription("List the message flows the stub runner registered. Each flow answers messages arriving on one destination using the contracts of one stub. Includes per-flow counters of received, matched, unmatched and sent messages."),
		mcp.WithString("destination",
			mcp.Description("Only list flows listening on this destination"),
		),
	)

	getTool := mcp.NewTool("get_flow",
		mcp.WithDescription("Get one flow with its subscriptions and the trigger and response of each contract, in matching order. The first contract whose patterns accept a message wins."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Flow name from list_flows"),
		),
	)

	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to a destination, as the service under test would. Use recent_events afterwards to see which contract answered."),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination (topic or queue) to send to"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Message body"),
		),
		mcp.WithString("key",
			mcp.Description("Message key (default: a random UUID)"),
		),
		mcp.WithObject("headers",
			mcp.Description("Message headers as a string to string map"),
		),
	)

	eventsTool := mcp.NewTool("recent_events",
		mcp.WithDescription("Recent routing events, newest first: matched, unmatched, send_error and collision, with per-kind counts."),
		mcp.WithString("flow",
			mcp.Description("Only return events of this flow"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max events to return (default: 20, max: 200)"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListFlows)
	s.mcpServer.AddTool(getTool, s.handleGetFlow)
	s.mcpServer.AddTool(sendTool, s.handleSendMessage)
	s.mcpServer.AddTool(eventsTool, s.handleRecentEvents)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	destination := request.GetString("destination", "")

	flows := s.registry.Flows()
	if destination != "" {
		flows = s.registry.ForDestination(destination)
	}

	summaries := make([]FlowSummary, 0, len(flows))
	for _, f := range flows {
		summaries = append(summaries, toSummary(f))
	}

	return jsonResult(summaries)
}

func (s *Server) handleGetFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	f, ok := s.registry.Get(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("flow not found: %s", name)), nil
	}

	return jsonResult(toDetail(f))
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.broker == nil {
		return mcp.NewToolResultError("no broker connected"), nil
	}

	destination := request.GetString("destination", "")
	if destination == "" {
		return mcp.NewToolResultError("destination parameter is required"), nil
	}
	if !contracts.ValidDestinationName(destination) {
		return mcp.NewToolResultError(fmt.Sprintf("malformed destination: %q", destination)), nil
	}

	body, ok := request.GetArguments()["body"].(string)
	if !ok {
		return mcp.NewToolResultError("body parameter is required"), nil
	}

	headers, err := stringMap(request.GetArguments()["headers"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	key := request.GetString("key", "")
	if key == "" {
		key = uuid.NewString()
	}

	msg := broker.Message{Key: key, Value: []byte(body), Headers: headers}
	if err := s.broker.Send(ctx, destination, msg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("send failed: %v", err)), nil
	}

	return jsonResult(SendResult{
		Destination: destination,
		Key:         key,
		Flows:       len(s.registry.ForDestination(destination)),
	})
}

func (s *Server) handleRecentEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return mcp.NewToolResultError("no event journal configured"), nil
	}

	flowName := request.GetString("flow", "")
	limit := request.GetInt("limit", defaultEventLimit)
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := s.journal.Recent(ctx, flowName, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read events: %v", err)), nil
	}
	counts, err := s.journal.Counts(ctx, flowName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count events: %v", err)), nil
	}

	if events == nil {
		events = []store.Event{}
	}
	return jsonResult(EventsResponse{Flow: flowName, Counts: counts, Events: events})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// stringMap converts a decoded JSON object into headers. Non-string values are
// rendered with fmt.
func stringMap(v interface{}) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("headers must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		if str, ok := val.(string); ok {
			out[k] = str
			continue
		}
		out[k] = fmt.Sprint(val)
	}
	return out, nil
}
