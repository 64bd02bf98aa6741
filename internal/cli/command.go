package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/verdantlabs/claudestream/internal/config"
)

// ProcessSpec is a fully resolved process invocation: executable, argument
// vector, working directory, and environment.
type ProcessSpec struct {
	// Path is the absolute path to the CLI binary.
	Path string

	// Args are the command line arguments, not including Path.
	Args []string

	// Dir is the working directory. Empty means inherit the parent's.
	Dir string

	// Env is the complete child environment in KEY=VALUE form.
	Env []string
}

// Command returns the full argument vector including the executable path.
func (s *ProcessSpec) Command() []string {
	return append([]string{s.Path}, s.Args...)
}

// NewProcessSpec builds the invocation spec for one query.
func NewProcessSpec(cliPath, prompt string, options *config.Options) ProcessSpec {
	return ProcessSpec{
		Path: cliPath,
		Args: BuildArgs(prompt, options),
		Dir:  options.Cwd,
		Env:  BuildEnvironment(options),
	}
}

// BuildArgs constructs the CLI argument vector: streaming-output flags,
// then the option-derived flags, then the prompt itself as the final
// positional argument after the "--" separator.
func BuildArgs(prompt string, options *config.Options) []string {
	args := []string{
		"--output-format", "stream-json",
		"--verbose",
	}

	if options.Model != "" {
		args = append(args, "--model", options.Model)
	}

	if options.PermissionMode != "" {
		args = append(args, "--permission-mode", options.PermissionMode)
	}

	if options.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(options.MaxTurns))
	}

	if options.SystemPrompt != "" {
		args = append(args, "--system-prompt", options.SystemPrompt)
	}

	if len(options.AllowedTools) > 0 {
		args = append(args, "--allowed-tools", strings.Join(options.AllowedTools, ","))
	}

	if len(options.DisallowedTools) > 0 {
		args = append(args, "--disallowed-tools", strings.Join(options.DisallowedTools, ","))
	}

	if options.Settings != "" {
		args = append(args, "--settings", options.Settings)
	}

	for _, dir := range options.AddDirs {
		args = append(args, "--add-dir", dir)
	}

	if len(options.MCPServers) > 0 {
		mcpConfig := map[string]any{"mcpServers": options.MCPServers}

		configJSON, err := json.Marshal(mcpConfig)
		if err == nil {
			args = append(args, "--mcp-config", string(configJSON))
		}
	}

	if options.OutputSchema != nil {
		schemaJSON, err := json.Marshal(options.OutputSchema)
		if err == nil {
			args = append(args, "--json-schema", string(schemaJSON))
		}
	}

	if options.ContinueConversation {
		args = append(args, "--continue")
	}

	if options.Resume != "" {
		args = append(args, "--resume", options.Resume)
	}

	for key, value := range options.ExtraArgs {
		if value == nil {
			args = append(args, "--"+key)
		} else {
			args = append(args, "--"+key, *value)
		}
	}

	args = append(args, "--print", "--", prompt)

	return args
}

// BuildEnvironment constructs the child environment.
//
// Inherit mode (default) starts from the full parent environment; isolate
// mode starts from an empty one. Caller-supplied overrides are applied last
// and always win over an inherited value of the same name. Names are not
// validated; a malformed name surfaces as a process start failure.
func BuildEnvironment(options *config.Options) []string {
	// Non-nil even when empty: exec.Cmd treats a nil Env as "inherit",
	// which would defeat isolate mode.
	env := make([]string, 0, len(options.Env))

	if !options.IsolateEnv {
		for _, entry := range os.Environ() {
			name, _, found := strings.Cut(entry, "=")
			if found && options.Env != nil {
				if _, overridden := options.Env[name]; overridden {
					continue
				}
			}

			env = append(env, entry)
		}
	}

	for key, value := range options.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}
