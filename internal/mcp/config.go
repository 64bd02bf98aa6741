// Package mcp provides configuration types for external MCP servers.
// They serialize into the --mcp-config flag of the CLI invocation.
package mcp

// ServerType represents the type of MCP server.
type ServerType string

const (
	// ServerTypeStdio uses stdio for communication.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE uses Server-Sent Events.
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP uses HTTP for communication.
	ServerTypeHTTP ServerType = "http"
)

// ServerConfig is the interface for MCP server configurations.
type ServerConfig interface {
	ServerType() ServerType
}

// Compile-time verification that all config types implement ServerConfig.
var (
	_ ServerConfig = (*StdioServerConfig)(nil)
	_ ServerConfig = (*SSEServerConfig)(nil)
	_ ServerConfig = (*HTTPServerConfig)(nil)
)

// StdioServerConfig configures a stdio-based MCP server.
type StdioServerConfig struct {
	Type    ServerType        `json:"type,omitempty"` // optional for backwards compatibility
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// ServerType implements ServerConfig.
func (c *StdioServerConfig) ServerType() ServerType {
	if c.Type != "" {
		return c.Type
	}

	return ServerTypeStdio
}

// SSEServerConfig configures a Server-Sent Events MCP server.
type SSEServerConfig struct {
	Type    ServerType        `json:"type"` // "sse"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ServerType implements ServerConfig.
func (c *SSEServerConfig) ServerType() ServerType { return c.Type }

// HTTPServerConfig configures an HTTP-based MCP server.
type HTTPServerConfig struct {
	Type    ServerType        `json:"type"` // "http"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ServerType implements ServerConfig.
func (c *HTTPServerConfig) ServerType() ServerType { return c.Type }
