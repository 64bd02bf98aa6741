package message

import (
	"encoding/json"

	"github.com/verdantlabs/claudestream/internal/jsonval"
)

// Message represents any parsed unit of CLI output.
// Use type assertion or type switch to determine the concrete type.
type Message interface {
	MessageType() string
}

// Compile-time verification that all message types implement Message.
var (
	_ Message = (*UserMessage)(nil)
	_ Message = (*AssistantMessage)(nil)
	_ Message = (*SystemMessage)(nil)
	_ Message = (*ResultMessage)(nil)
)

// UserMessage represents user input echoed back by the CLI.
type UserMessage struct {
	Content string
}

// MessageType implements the Message interface.
func (m *UserMessage) MessageType() string { return "user" }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (m *UserMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}

	return json.Marshal(wire{Type: "user", Content: m.Content})
}

// AssistantMessage represents a message produced by the assistant.
type AssistantMessage struct {
	Content []ContentBlock
}

// MessageType implements the Message interface.
func (m *AssistantMessage) MessageType() string { return "assistant" }

// MarshalJSON implements json.Marshaler using the CLI wire format,
// which nests the content under a "message" field.
func (m *AssistantMessage) MarshalJSON() ([]byte, error) {
	type inner struct {
		Content []ContentBlock `json:"content"`
	}

	type wire struct {
		Type    string `json:"type"`
		Message inner  `json:"message"`
	}

	content := m.Content
	if content == nil {
		content = []ContentBlock{}
	}

	return json.Marshal(wire{Type: "assistant", Message: inner{Content: content}})
}

// SystemMessage represents a system event emitted by the CLI.
type SystemMessage struct {
	Subtype string
	Data    jsonval.Object
}

// MessageType implements the Message interface.
func (m *SystemMessage) MessageType() string { return "system" }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (m *SystemMessage) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    string         `json:"type"`
		Subtype string         `json:"subtype"`
		Data    jsonval.Object `json:"data,omitempty"`
	}

	return json.Marshal(wire{Type: "system", Subtype: m.Subtype, Data: m.Data})
}

// ResultMessage represents the final result of a conversation turn.
// It signals end-of-turn but not necessarily end-of-stream.
type ResultMessage struct {
	Subtype       string
	DurationMs    int
	DurationAPIMs int
	IsError       bool
	NumTurns      int
	SessionID     string
	TotalCostUSD  *float64
	Usage         jsonval.Object
	Result        *string
}

// MessageType implements the Message interface.
func (m *ResultMessage) MessageType() string { return "result" }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (m *ResultMessage) MarshalJSON() ([]byte, error) {
	//nolint:tagliatelle // CLI wire format uses snake_case
	type wire struct {
		Type          string         `json:"type"`
		Subtype       string         `json:"subtype"`
		DurationMs    int            `json:"duration_ms"`
		DurationAPIMs int            `json:"duration_api_ms"`
		IsError       bool           `json:"is_error"`
		NumTurns      int            `json:"num_turns"`
		SessionID     string         `json:"session_id"`
		TotalCostUSD  *float64       `json:"total_cost_usd,omitempty"`
		Usage         jsonval.Object `json:"usage,omitempty"`
		Result        *string        `json:"result,omitempty"`
	}

	return json.Marshal(wire{
		Type:          "result",
		Subtype:       m.Subtype,
		DurationMs:    m.DurationMs,
		DurationAPIMs: m.DurationAPIMs,
		IsError:       m.IsError,
		NumTurns:      m.NumTurns,
		SessionID:     m.SessionID,
		TotalCostUSD:  m.TotalCostUSD,
		Usage:         m.Usage,
		Result:        m.Result,
	})
}
