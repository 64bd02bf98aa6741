package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	cause := fmt.Errorf("invalid character 'x'")
	err := &ParseError{
		Line:       "xyz not json",
		LineNumber: 7,
		Err:        cause,
	}

	require.Contains(t, err.Error(), "line 7")
	require.Contains(t, err.Error(), "invalid character")
	require.Equal(t, "xyz not json", err.Line)
	require.ErrorIs(t, err, cause)
	require.True(t, err.IsStreamError())
}

func TestProcessError(t *testing.T) {
	err := &ProcessError{
		ExitCode: 3,
		Stderr:   "boom",
		Command:  []string{"/usr/local/bin/claude", "--output-format", "stream-json"},
	}

	require.Contains(t, err.Error(), "exit 3")
	require.Contains(t, err.Error(), "boom")
	require.Contains(t, err.Error(), "/usr/local/bin/claude")
}

func TestProcessError_NoStderr(t *testing.T) {
	err := &ProcessError{ExitCode: 1, Command: []string{"claude"}}

	require.Equal(t, "command claude failed (exit 1)", err.Error())
}

func TestProcessError_LongCommandTruncated(t *testing.T) {
	command := make([]string, 20)
	for i := range command {
		command[i] = fmt.Sprintf("arg%d", i)
	}

	err := &ProcessError{ExitCode: 1, Command: command}

	require.Contains(t, err.Error(), "...")
	require.NotContains(t, err.Error(), "arg19")
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{
		Timeout: 250 * time.Millisecond,
		Command: []string{"claude", "--print"},
	}

	require.Contains(t, err.Error(), "250ms")
	require.Contains(t, err.Error(), "claude")
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Parameter: "cwd",
		Value:     "/does/not/exist",
		Reason:    "directory does not exist",
	}

	require.Contains(t, err.Error(), `invalid cwd "/does/not/exist"`)
	require.Contains(t, err.Error(), "directory does not exist")
}

func TestCLINotFoundError(t *testing.T) {
	err := &CLINotFoundError{SearchedPaths: []string{"$PATH", "/usr/bin/claude"}}

	require.Contains(t, err.Error(), "/usr/bin/claude")
}

func TestErrorsAsStreamError(t *testing.T) {
	wrapped := fmt.Errorf("start: %w", &ConnectionError{Err: stderrors.New("pipe")})

	var connErr *ConnectionError

	require.True(t, stderrors.As(wrapped, &connErr))
	require.Contains(t, connErr.Error(), "pipe")
}
