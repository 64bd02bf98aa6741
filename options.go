package claudestream

import (
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSystemPrompt sets the system message to send to Claude.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithModel specifies which Claude model to use (e.g., "claude-sonnet-4-5").
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithPermissionMode controls how permissions are handled.
// Valid values: "default", "acceptEdits", "plan", "bypassPermissions".
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// WithMaxTurns limits the maximum number of conversation turns.
// Must not be negative; Query rejects negative values with a ConfigError.
func WithMaxTurns(maxTurns int) Option {
	return func(o *Options) {
		o.MaxTurns = maxTurns
	}
}

// WithCwd sets the working directory for the CLI process.
// The directory must exist; Query rejects a missing one with a ConfigError.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithCLIPath sets the explicit path to the claude CLI binary.
// If not set, the CLI will be searched in PATH and common install locations.
func WithCLIPath(path string) Option {
	return func(o *Options) {
		o.CLIPath = path
	}
}

// ===== Environment =====

// WithEnv provides environment variable overrides for the CLI process.
// Overrides are applied last and win over inherited variables of the same
// name. Values are passed to the child only; they never appear in errors
// or log output.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithIsolatedEnv starts the child from an empty environment instead of
// inheriting the parent's. Only the overrides given to WithEnv are passed
// through.
func WithIsolatedEnv() Option {
	return func(o *Options) {
		o.IsolateEnv = true
	}
}

// ===== Execution Limits =====

// WithTimeout bounds the wall-clock duration of the invocation. When the
// deadline passes the subprocess is killed and the stream ends with a
// TimeoutError. Zero means no timeout; negative values are rejected by
// Query with a ConfigError.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithMaxBufferSize caps stdout line buffering in bytes. A line longer
// than the cap fails the stream. Defaults to 1MB.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) {
		o.MaxBufferSize = &size
	}
}

// ===== Tools =====

// WithAllowedTools sets the list of pre-approved tools that skip
// permission prompts.
func WithAllowedTools(tools ...string) Option {
	return func(o *Options) {
		o.AllowedTools = tools
	}
}

// WithDisallowedTools sets the list of tools that are explicitly blocked.
func WithDisallowedTools(tools ...string) Option {
	return func(o *Options) {
		o.DisallowedTools = tools
	}
}

// ===== Sessions =====

// WithContinueConversation continues the most recent conversation.
func WithContinueConversation() Option {
	return func(o *Options) {
		o.ContinueConversation = true
	}
}

// WithResume resumes the conversation with the given session ID.
func WithResume(sessionID string) Option {
	return func(o *Options) {
		o.Resume = sessionID
	}
}

// ===== MCP and Structured Output =====

// WithMCPServers configures external MCP servers, keyed by server name.
func WithMCPServers(servers map[string]MCPServerConfig) Option {
	return func(o *Options) {
		o.MCPServers = servers
	}
}

// WithOutputSchema requests structured output conforming to the given
// JSON schema.
func WithOutputSchema(schema *jsonschema.Schema) Option {
	return func(o *Options) {
		o.OutputSchema = schema
	}
}

// ===== Advanced =====

// WithSettings sets a settings file path or raw JSON string to pass to
// the CLI.
func WithSettings(path string) Option {
	return func(o *Options) {
		o.Settings = path
	}
}

// WithAddDirs adds directories the CLI may access beyond the working
// directory.
func WithAddDirs(dirs ...string) Option {
	return func(o *Options) {
		o.AddDirs = dirs
	}
}

// WithExtraArgs provides arbitrary extra CLI flags. A nil value passes
// the flag without a value (boolean flag).
func WithExtraArgs(args map[string]*string) Option {
	return func(o *Options) {
		o.ExtraArgs = args
	}
}

// WithStderr sets a callback invoked for each line of child stderr as it
// arrives. The callback runs on the reader goroutine and should return
// promptly.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// WithoutVersionCheck disables the best-effort CLI version check during
// discovery. The check can also be disabled with the
// CLAUDESTREAM_SKIP_VERSION_CHECK environment variable.
func WithoutVersionCheck() Option {
	return func(o *Options) {
		o.SkipVersionCheck = true
	}
}

// WithTransport injects a custom transport implementation, bypassing the
// default subprocess runner. Intended for tests and alternative execution
// environments.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}
