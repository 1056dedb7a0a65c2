// Package mcp exposes the running flows and the event journal as MCP tools so
// that an LLM client can inspect the stub runner and trigger contracts.
package mcp

import (
	"stubrunner-agent/src/router"
	"stubrunner-agent/src/store"
)

// FlowSummary is one entry of the list_flows response.
type FlowSummary struct {
	Name        string                 `json:"name"`
	Stub        string                 `json:"stub"`
	Destination string                 `json:"destination"`
	Contracts   int                    `json:"contracts"`
	State       string                 `json:"state"`
	Metrics     router.MetricsSnapshot `json:"metrics"`
}

// FlowDetail is the get_flow response.
type FlowDetail struct {
	FlowSummary
	Subscriptions []SubscriptionView `json:"subscriptions"`
	Contracts     []ContractView     `json:"contract_list"`
}

// SubscriptionView describes one listener container.
type SubscriptionView struct {
	Destination string `json:"destination"`
	GroupID     string `json:"group_id"`
	Running     bool   `json:"running"`
}

// ContractView is the trigger and response of one contract.
type ContractView struct {
	Name         string                 `json:"name"`
	Body         PatternView            `json:"body"`
	Headers      map[string]PatternView `json:"headers,omitempty"`
	SentTo       string                 `json:"sent_to"`
	OutputBody   string                 `json:"output_body"`
	OutputHeader map[string]string      `json:"output_headers,omitempty"`
	EchoHeaders  map[string]string      `json:"echo_headers,omitempty"`
	Delay        string                 `json:"delay,omitempty"`
}

// PatternView renders a pattern for clients.
type PatternView struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

// SendResult is the send_message response.
type SendResult struct {
	Destination string `json:"destination"`
	Key         string `json:"key"`
	Flows       int    `json:"listening_flows"`
}

// EventsResponse is the recent_events response.
type EventsResponse struct {
	Flow   string                  `json:"flow,omitempty"`
	Counts map[store.EventKind]int `json:"counts"`
	Events []store.Event           `json:"events"`
}
