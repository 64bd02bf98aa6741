package message

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	sdkerrors "github.com/verdantlabs/claudestream/internal/errors"
	"github.com/verdantlabs/claudestream/internal/jsonval"
)

func TestParseLine_BlankLines(t *testing.T) {
	log := slog.Default()

	for _, line := range []string{"", "   ", "\t", " \t "} {
		msg, err := ParseLine(log, []byte(line), 1)
		require.NoError(t, err)
		require.Nil(t, msg)
	}
}

func TestParseLine_InvalidJSON(t *testing.T) {
	log := slog.Default()

	msg, err := ParseLine(log, []byte("this is not json"), 42)
	require.Nil(t, msg)
	require.Error(t, err)

	var parseErr *sdkerrors.ParseError

	require.True(t, stderrors.As(err, &parseErr))
	require.Equal(t, "this is not json", parseErr.Line)
	require.Equal(t, 42, parseErr.LineNumber)
	require.Error(t, parseErr.Err)
}

func TestParseLine_DroppedSilently(t *testing.T) {
	log := slog.Default()

	tests := []struct {
		name string
		line string
	}{
		{name: "non-object value", line: `42`},
		{name: "missing type discriminator", line: `{"content":"hi"}`},
		{name: "unknown type", line: `{"type":"telemetry","data":{}}`},
		{name: "user without content", line: `{"type":"user"}`},
		{name: "assistant without message", line: `{"type":"assistant"}`},
		{name: "system without subtype", line: `{"type":"system","data":{}}`},
		{name: "result without subtype", line: `{"type":"result","duration_ms":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseLine(log, []byte(tt.line), 1)
			require.NoError(t, err)
			require.Nil(t, msg)
		})
	}
}

func TestParseLine_UserMessage(t *testing.T) {
	log := slog.Default()

	t.Run("top-level content", func(t *testing.T) {
		msg, err := ParseLine(log, []byte(`{"type":"user","content":"Hello"}`), 1)
		require.NoError(t, err)

		user, ok := msg.(*UserMessage)
		require.True(t, ok)
		require.Equal(t, "Hello", user.Content)
	})

	t.Run("nested message content", func(t *testing.T) {
		msg, err := ParseLine(log, []byte(`{"type":"user","message":{"content":"Nested"}}`), 1)
		require.NoError(t, err)

		user, ok := msg.(*UserMessage)
		require.True(t, ok)
		require.Equal(t, "Nested", user.Content)
	})
}

func TestParseLine_AssistantMessage(t *testing.T) {
	log := slog.Default()

	line := `{"type":"assistant","message":{"content":[` +
		`{"type":"text","text":"Hi"},` +
		`{"type":"tool_use","id":"tool-1","name":"Read","input":{"file_path":"/tmp/x","limit":3}},` +
		`{"type":"tool_result","tool_use_id":"tool-1","content":"ok","is_error":false}]}}`

	msg, err := ParseLine(log, []byte(line), 1)
	require.NoError(t, err)

	assistant, ok := msg.(*AssistantMessage)
	require.True(t, ok)
	require.Len(t, assistant.Content, 3)

	text, ok := assistant.Content[0].(*TextBlock)
	require.True(t, ok)
	require.Equal(t, "Hi", text.Text)

	toolUse, ok := assistant.Content[1].(*ToolUseBlock)
	require.True(t, ok)
	require.Equal(t, "tool-1", toolUse.ID)
	require.Equal(t, "Read", toolUse.Name)

	path, ok := toolUse.Input.String("file_path")
	require.True(t, ok)
	require.Equal(t, "/tmp/x", path)

	limit, ok := toolUse.Input.Int("limit")
	require.True(t, ok)
	require.Equal(t, int64(3), limit)

	toolResult, ok := assistant.Content[2].(*ToolResultBlock)
	require.True(t, ok)
	require.Equal(t, "tool-1", toolResult.ToolUseID)
	require.NotNil(t, toolResult.Content)
	require.Equal(t, "ok", *toolResult.Content)
	require.NotNil(t, toolResult.IsError)
	require.False(t, *toolResult.IsError)
}

func TestParseLine_UnknownBlockTypeDegradesToText(t *testing.T) {
	log := slog.Default()

	line := `{"type":"assistant","message":{"content":[{"type":"sparkline","text":"future"}]}}`

	msg, err := ParseLine(log, []byte(line), 1)
	require.NoError(t, err)

	assistant, ok := msg.(*AssistantMessage)
	require.True(t, ok)
	require.Len(t, assistant.Content, 1)

	text, ok := assistant.Content[0].(*TextBlock)
	require.True(t, ok)
	require.Equal(t, "future", text.Text)
}

func TestParseLine_SystemMessage(t *testing.T) {
	log := slog.Default()

	t.Run("nested data field", func(t *testing.T) {
		msg, err := ParseLine(log, []byte(`{"type":"system","subtype":"init","data":{"model":"opus"}}`), 1)
		require.NoError(t, err)

		system, ok := msg.(*SystemMessage)
		require.True(t, ok)
		require.Equal(t, "init", system.Subtype)

		model, ok := system.Data.String("model")
		require.True(t, ok)
		require.Equal(t, "opus", model)
	})

	t.Run("top-level fields gathered into data", func(t *testing.T) {
		msg, err := ParseLine(log, []byte(`{"type":"system","subtype":"init","session_id":"s1","tools":["Read"]}`), 1)
		require.NoError(t, err)

		system, ok := msg.(*SystemMessage)
		require.True(t, ok)

		sessionID, ok := system.Data.String("session_id")
		require.True(t, ok)
		require.Equal(t, "s1", sessionID)

		_, hasType := system.Data["type"]
		require.False(t, hasType)
	})
}

func TestParseLine_ResultMessage(t *testing.T) {
	log := slog.Default()

	line := `{"type":"result","subtype":"success","duration_ms":1500,"duration_api_ms":1200,` +
		`"is_error":false,"num_turns":2,"session_id":"sess-1","total_cost_usd":0.0042,` +
		`"usage":{"input_tokens":10,"output_tokens":20},"result":"done"}`

	msg, err := ParseLine(log, []byte(line), 1)
	require.NoError(t, err)

	result, ok := msg.(*ResultMessage)
	require.True(t, ok)
	require.Equal(t, "success", result.Subtype)
	require.Equal(t, 1500, result.DurationMs)
	require.Equal(t, 1200, result.DurationAPIMs)
	require.False(t, result.IsError)
	require.Equal(t, 2, result.NumTurns)
	require.Equal(t, "sess-1", result.SessionID)
	require.NotNil(t, result.TotalCostUSD)
	require.InDelta(t, 0.0042, *result.TotalCostUSD, 1e-9)
	require.NotNil(t, result.Result)
	require.Equal(t, "done", *result.Result)

	inputTokens, ok := result.Usage.Int("input_tokens")
	require.True(t, ok)
	require.Equal(t, int64(10), inputTokens)
}

// TestParseLine_Scenario walks the canonical three-line exchange and checks
// messages arrive typed, ordered, and field-exact.
func TestParseLine_Scenario(t *testing.T) {
	log := slog.Default()

	lines := []string{
		`{"type":"user","content":"Hello"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Hi"}]}}`,
		`{"type":"result","subtype":"ok","duration_ms":10,"duration_api_ms":5,"is_error":false,"num_turns":1,"session_id":"s1"}`,
	}

	var messages []Message

	for i, line := range lines {
		msg, err := ParseLine(log, []byte(line), i+1)
		require.NoError(t, err)
		require.NotNil(t, msg)

		messages = append(messages, msg)
	}

	require.Len(t, messages, 3)

	user, ok := messages[0].(*UserMessage)
	require.True(t, ok)
	require.Equal(t, "Hello", user.Content)

	assistant, ok := messages[1].(*AssistantMessage)
	require.True(t, ok)
	require.Len(t, assistant.Content, 1)
	require.Equal(t, "Hi", assistant.Content[0].(*TextBlock).Text)

	result, ok := messages[2].(*ResultMessage)
	require.True(t, ok)
	require.Equal(t, "ok", result.Subtype)
	require.Equal(t, 10, result.DurationMs)
	require.Equal(t, 5, result.DurationAPIMs)
	require.False(t, result.IsError)
	require.Equal(t, 1, result.NumTurns)
	require.Equal(t, "s1", result.SessionID)
	require.Nil(t, result.TotalCostUSD)
	require.Nil(t, result.Result)
}

// TestMarshal_ParseRoundTrip serializes one message of each variant and
// parses it back, expecting an identical value.
func TestMarshal_ParseRoundTrip(t *testing.T) {
	log := slog.Default()
	cost := 0.01
	resultText := "answer"
	toolContent := "file contents"
	isError := true

	messages := []Message{
		&UserMessage{Content: "round trip"},
		&AssistantMessage{Content: []ContentBlock{
			&TextBlock{Text: "hello"},
			&ToolUseBlock{ID: "t1", Name: "Bash", Input: jsonval.Object{
				"command": jsonval.String("ls"),
				"timeout": jsonval.Int(30),
			}},
			&ToolResultBlock{ToolUseID: "t1", Content: &toolContent, IsError: &isError},
		}},
		&SystemMessage{Subtype: "init", Data: jsonval.Object{
			"model": jsonval.String("opus"),
			"count": jsonval.Int(2),
		}},
		&ResultMessage{
			Subtype:       "success",
			DurationMs:    100,
			DurationAPIMs: 80,
			IsError:       false,
			NumTurns:      1,
			SessionID:     "s9",
			TotalCostUSD:  &cost,
			Usage: jsonval.Object{
				"input_tokens": jsonval.Int(5),
			},
			Result: &resultText,
		},
	}

	for _, original := range messages {
		t.Run(original.MessageType(), func(t *testing.T) {
			data, err := json.Marshal(original)
			require.NoError(t, err)

			parsed, err := ParseLine(log, data, 1)
			require.NoError(t, err)
			require.Equal(t, original, parsed)
		})
	}
}
