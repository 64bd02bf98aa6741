package claudestream

import (
	"github.com/verdantlabs/claudestream/internal/config"
	"github.com/verdantlabs/claudestream/internal/jsonval"
	"github.com/verdantlabs/claudestream/internal/mcp"
	"github.com/verdantlabs/claudestream/internal/message"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures a single CLI invocation. Construct it through the
// Option functions rather than directly.
type Options = config.Options

// ===== Messages =====

// Message is the interface implemented by all message types yielded by Query.
type Message = message.Message

// UserMessage represents a message from the user.
type UserMessage = message.UserMessage

// AssistantMessage represents a message from the assistant, carrying one or
// more content blocks.
type AssistantMessage = message.AssistantMessage

// SystemMessage represents a system message with metadata.
type SystemMessage = message.SystemMessage

// ResultMessage summarizes a completed invocation, including timing, cost,
// and the final result text.
type ResultMessage = message.ResultMessage

// ===== Content Blocks =====

// ContentBlock is the interface implemented by all assistant content blocks.
type ContentBlock = message.ContentBlock

// TextBlock contains plain text content.
type TextBlock = message.TextBlock

// ToolUseBlock describes a tool invocation requested by the assistant.
type ToolUseBlock = message.ToolUseBlock

// ToolResultBlock carries the outcome of a tool invocation.
type ToolResultBlock = message.ToolResultBlock

// ===== JSON Values =====

// Value is a decoded JSON value. It appears in the open-ended parts of
// messages, such as SystemMessage.Data and ToolUseBlock.Input.
type Value = jsonval.Value

// Null is the JSON null value.
type Null = jsonval.Null

// Bool is a JSON boolean.
type Bool = jsonval.Bool

// Number is a JSON number. Integral values are preserved exactly; use
// IsInt to distinguish them from floating-point values.
type Number = jsonval.Number

// String is a JSON string.
type String = jsonval.String

// Array is a JSON array.
type Array = jsonval.Array

// Object is a JSON object with typed accessors.
type Object = jsonval.Object

// ===== MCP Server Configuration =====

// MCPServerConfig is the interface implemented by all MCP server
// configuration types.
type MCPServerConfig = mcp.ServerConfig

// MCPStdioServerConfig configures an MCP server launched over stdio.
type MCPStdioServerConfig = mcp.StdioServerConfig

// MCPSSEServerConfig configures an MCP server reached over SSE.
type MCPSSEServerConfig = mcp.SSEServerConfig

// MCPHTTPServerConfig configures an MCP server reached over HTTP.
type MCPHTTPServerConfig = mcp.HTTPServerConfig
