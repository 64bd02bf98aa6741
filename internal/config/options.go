// Package config provides configuration types shared across the module.
package config

import (
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/verdantlabs/claudestream/internal/mcp"
)

// Options configures a single CLI invocation.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// SystemPrompt is the system message passed to the CLI.
	SystemPrompt string

	// Model specifies which model to use (e.g. "claude-sonnet-4-5").
	Model string

	// PermissionMode controls how permissions are handled.
	// Valid values: "default", "acceptEdits", "plan", "bypassPermissions".
	PermissionMode string

	// MaxTurns limits the maximum number of conversation turns.
	MaxTurns int

	// Cwd sets the working directory for the CLI process.
	// If empty, the child inherits the parent's working directory.
	// Existence is validated before the process is started.
	Cwd string

	// CLIPath is the explicit path to the CLI binary.
	// If empty, the binary is searched in PATH and common locations.
	CLIPath string

	// Env provides environment variable overrides for the CLI process.
	// Overrides are applied last and always win over inherited values.
	Env map[string]string

	// IsolateEnv starts the child from an empty environment instead of
	// inheriting the parent's. Only the Env overrides are passed through.
	IsolateEnv bool

	// Timeout is the maximum wall-clock duration for the invocation.
	// Zero means no timeout. When exceeded, the process is killed and the
	// invocation fails with a TimeoutError.
	Timeout time.Duration

	// AllowedTools is a list of pre-approved tools that skip permission prompts.
	AllowedTools []string

	// DisallowedTools is a list of tools that are explicitly blocked.
	DisallowedTools []string

	// Settings is a settings file path or raw JSON string passed to the CLI.
	Settings string

	// AddDirs is a list of additional directories to make accessible.
	AddDirs []string

	// MCPServers configures external MCP servers, keyed by server name.
	// Serialized into the --mcp-config flag.
	MCPServers map[string]mcp.ServerConfig

	// OutputSchema requests structured output conforming to a JSON schema.
	OutputSchema *jsonschema.Schema

	// ContinueConversation continues the most recent conversation.
	ContinueConversation bool

	// Resume is a session ID to resume from.
	Resume string

	// ExtraArgs provides arbitrary extra CLI flags.
	// A nil value passes the flag without a value (boolean flag).
	ExtraArgs map[string]*string

	// MaxBufferSize caps stdout line buffering in bytes.
	// If nil, a 1MB default applies.
	MaxBufferSize *int

	// Stderr is invoked for each line of child stderr as it arrives.
	Stderr func(string)

	// SkipVersionCheck disables the best-effort CLI version check.
	SkipVersionCheck bool

	// Transport allows injecting a custom transport implementation.
	// If nil, the default subprocess runner is created automatically.
	Transport Transport
}
