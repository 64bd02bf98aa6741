package cli

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verdantlabs/claudestream/internal/errors"
)

const (
	// MinimumVersion is the minimum supported CLI version.
	MinimumVersion = "2.0.0"

	// VersionCheckTimeout bounds the CLI version check command.
	VersionCheckTimeout = 2 * time.Second

	// SkipVersionCheckEnv disables the version check when set.
	SkipVersionCheckEnv = "CLAUDESTREAM_SKIP_VERSION_CHECK"
)

// DiscoverConfig holds configuration for CLI discovery.
type DiscoverConfig struct {
	// CLIPath is an explicit CLI path that skips the search.
	CLIPath string

	// SkipVersionCheck skips version validation during discovery.
	// Can also be controlled via the SkipVersionCheckEnv variable.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	Logger *slog.Logger
}

// Discoverer locates the CLI binary.
type Discoverer interface {
	// Discover returns the path to the CLI binary or a CLINotFoundError.
	Discover(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *DiscoverConfig
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a CLI discoverer with the given configuration.
func NewDiscoverer(cfg *DiscoverConfig) Discoverer {
	if cfg == nil {
		cfg = &DiscoverConfig{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{cfg: cfg, log: log}
}

// Discover locates the CLI binary and runs a best-effort version check.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	cliPath, err := d.findCLI()
	if err != nil {
		d.log.Error("Failed to find CLI binary", "error", err)

		return "", err
	}

	d.log.Debug("Found CLI binary", "cli_path", cliPath)

	d.checkVersion(ctx, cliPath)

	return cliPath, nil
}

// findCLI searches the explicit path, then PATH, then common locations.
func (d *discoverer) findCLI() (string, error) {
	if d.cfg.CLIPath != "" {
		if _, err := os.Stat(d.cfg.CLIPath); err == nil {
			return d.cfg.CLIPath, nil
		}

		d.log.Debug("Explicit CLI path not found", "cli_path", d.cfg.CLIPath)

		return "", &errors.CLINotFoundError{SearchedPaths: []string{d.cfg.CLIPath}}
	}

	searchedPaths := make([]string, 0, 4)

	if path, err := exec.LookPath("claude"); err == nil {
		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{
		"/usr/local/bin/claude",
		"/usr/bin/claude",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin/claude"))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	d.log.Warn("CLI binary not found", "searched_paths", searchedPaths)

	return "", &errors.CLINotFoundError{SearchedPaths: searchedPaths}
}

// checkVersion warns if the CLI version is below the minimum.
// Failures are logged and otherwise ignored.
func (d *discoverer) checkVersion(ctx context.Context, cliPath string) {
	if d.cfg.SkipVersionCheck || os.Getenv(SkipVersionCheckEnv) != "" {
		d.log.Debug("Skipping CLI version check")

		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cliPath, "-v")

	output, err := cmd.Output()
	if err != nil {
		d.log.Debug("CLI version check failed", "error", err)

		return
	}

	versionStr := strings.TrimSpace(string(output))
	re := regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)`)

	match := re.FindStringSubmatch(versionStr)
	if match == nil {
		d.log.Debug("Could not parse CLI version", "output", versionStr)

		return
	}

	if compareVersions(match[1], MinimumVersion) < 0 {
		d.log.Warn("CLI version below supported minimum",
			"version", match[1],
			"minimum_required", MinimumVersion,
		)
	}
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
