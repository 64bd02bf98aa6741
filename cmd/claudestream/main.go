// Command claudestream runs a prompt through the Claude CLI and prints the
// streamed output.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verdantlabs/claudestream"
)

var version = "0.1.0"

// fileConfig holds defaults loaded from the optional config file. Flags
// always win over file values.
type fileConfig struct {
	Model          string `yaml:"model"`
	PermissionMode string `yaml:"permission_mode"`
	SystemPrompt   string `yaml:"system_prompt"`
	MaxTurns       int    `yaml:"max_turns"`
	Timeout        string `yaml:"timeout"`
	CLIPath        string `yaml:"cli_path"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".claudestream.yaml")
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

var configPath string // overridable via --config flag

func main() {
	root := &cobra.Command{
		Use:          "claudestream",
		Short:        "Stream Claude CLI output as it is produced",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config file (default: ~/.claudestream.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

type runFlags struct {
	model          string
	systemPrompt   string
	permissionMode string
	maxTurns       int
	timeout        time.Duration
	cwd            string
	cliPath        string
	firstText      bool
	jsonOut        bool
	verbose        bool
}

func runCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run a prompt and stream the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.model, "model", "", "model to use")
	cmd.Flags().StringVar(&flags.systemPrompt, "system-prompt", "", "system prompt")
	cmd.Flags().StringVar(&flags.permissionMode, "permission-mode", "", "permission mode")
	cmd.Flags().IntVar(&flags.maxTurns, "max-turns", 0, "limit conversation turns")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "kill the process after this duration")
	cmd.Flags().StringVar(&flags.cwd, "cwd", "", "working directory for the CLI")
	cmd.Flags().StringVar(&flags.cliPath, "cli", "", "explicit path to the CLI binary")
	cmd.Flags().BoolVar(&flags.firstText, "first-text", false, "print only the first assistant text and exit")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print raw messages as JSON lines")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging to stderr")

	return cmd
}

// buildOptions merges file config and flags into query options.
func buildOptions(cfg *fileConfig, flags *runFlags) ([]claudestream.Option, error) {
	var opts []claudestream.Option

	if flags.verbose {
		opts = append(opts, claudestream.WithLogger(slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)))
	}

	if model := firstOf(flags.model, cfg.Model); model != "" {
		opts = append(opts, claudestream.WithModel(model))
	}

	if prompt := firstOf(flags.systemPrompt, cfg.SystemPrompt); prompt != "" {
		opts = append(opts, claudestream.WithSystemPrompt(prompt))
	}

	if mode := firstOf(flags.permissionMode, cfg.PermissionMode); mode != "" {
		opts = append(opts, claudestream.WithPermissionMode(mode))
	}

	maxTurns := flags.maxTurns
	if maxTurns == 0 {
		maxTurns = cfg.MaxTurns
	}

	if maxTurns > 0 {
		opts = append(opts, claudestream.WithMaxTurns(maxTurns))
	}

	timeout := flags.timeout

	if timeout == 0 && cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse timeout %q: %w", cfg.Timeout, err)
		}

		timeout = parsed
	}

	if timeout > 0 {
		opts = append(opts, claudestream.WithTimeout(timeout))
	}

	if flags.cwd != "" {
		opts = append(opts, claudestream.WithCwd(flags.cwd))
	}

	if path := firstOf(flags.cliPath, cfg.CLIPath); path != "" {
		opts = append(opts, claudestream.WithCLIPath(path))
	}

	return opts, nil
}

func runPrompt(cmd *cobra.Command, prompt string, flags *runFlags) error {
	path := configPath
	if path == "" {
		path = defaultConfigPath()
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	opts, err := buildOptions(cfg, flags)
	if err != nil {
		return err
	}

	// Ctrl-C cancels the query and kills the subprocess.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	if flags.firstText {
		text, err := claudestream.FirstText(ctx, prompt, opts...)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, text)

		return nil
	}

	for msg, err := range claudestream.Query(ctx, prompt, opts...) {
		if err != nil {
			var parseErr *claudestream.ParseError
			if errors.As(err, &parseErr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping undecodable line %d\n", parseErr.LineNumber)

				continue
			}

			return err
		}

		if flags.jsonOut {
			data, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("encode message: %w", err)
			}

			fmt.Fprintln(out, string(data))

			continue
		}

		printMessage(out, msg)
	}

	return nil
}

// printMessage renders a message for human consumption.
func printMessage(out io.Writer, msg claudestream.Message) {
	switch m := msg.(type) {
	case *claudestream.AssistantMessage:
		for _, block := range m.Content {
			switch b := block.(type) {
			case *claudestream.TextBlock:
				fmt.Fprintln(out, b.Text)
			case *claudestream.ToolUseBlock:
				fmt.Fprintf(out, "[tool: %s]\n", b.Name)
			}
		}
	case *claudestream.ResultMessage:
		if m.TotalCostUSD != nil {
			fmt.Fprintf(out, "done in %dms ($%.4f)\n", m.DurationMs, *m.TotalCostUSD)
		} else {
			fmt.Fprintf(out, "done in %dms\n", m.DurationMs)
		}
	}
}

// firstOf returns the first non-empty string.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
