// Package message provides the typed message model for CLI output and the
// line parser that produces it.
package message

import (
	"encoding/json"

	"github.com/verdantlabs/claudestream/internal/jsonval"
)

// Block type constants.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock represents a block of content within an assistant message.
type ContentBlock interface {
	BlockType() string
}

// Compile-time verification that all content block types implement ContentBlock.
var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ToolUseBlock)(nil)
	_ ContentBlock = (*ToolResultBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Text string
}

// BlockType implements the ContentBlock interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (b *TextBlock) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	return json.Marshal(wire{Type: BlockTypeText, Text: b.Text})
}

// ToolUseBlock represents the assistant invoking a tool.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input jsonval.Object
}

// BlockType implements the ContentBlock interface.
func (b *ToolUseBlock) BlockType() string { return BlockTypeToolUse }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (b *ToolUseBlock) MarshalJSON() ([]byte, error) {
	//nolint:tagliatelle // CLI wire format uses snake_case
	type wire struct {
		Type  string         `json:"type"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input jsonval.Object `json:"input"`
	}

	return json.Marshal(wire{Type: BlockTypeToolUse, ID: b.ID, Name: b.Name, Input: b.Input})
}

// ToolResultBlock contains the result of a tool execution.
type ToolResultBlock struct {
	ToolUseID string
	Content   *string
	IsError   *bool
}

// BlockType implements the ContentBlock interface.
func (b *ToolResultBlock) BlockType() string { return BlockTypeToolResult }

// MarshalJSON implements json.Marshaler using the CLI wire format.
func (b *ToolResultBlock) MarshalJSON() ([]byte, error) {
	//nolint:tagliatelle // CLI wire format uses snake_case
	type wire struct {
		Type      string  `json:"type"`
		ToolUseID string  `json:"tool_use_id"`
		Content   *string `json:"content,omitempty"`
		IsError   *bool   `json:"is_error,omitempty"`
	}

	return json.Marshal(wire{
		Type:      BlockTypeToolResult,
		ToolUseID: b.ToolUseID,
		Content:   b.Content,
		IsError:   b.IsError,
	})
}
