package message

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/verdantlabs/claudestream/internal/errors"
	"github.com/verdantlabs/claudestream/internal/jsonval"
)

// ParseLine converts one line of CLI stdout into a typed Message.
//
// Blank or whitespace-only lines produce neither a message nor an error.
// Lines that are not valid JSON produce a *errors.ParseError carrying the
// verbatim line and its 1-based number; the caller is expected to skip the
// line and continue.
//
// Lines that decode but carry an unknown or missing "type" discriminator,
// or that are missing required fields for their type, are dropped with a
// debug log entry rather than reported. This mirrors the CLI's own habit of
// adding record types over time: structurally valid but unrecognized output
// must not break older consumers.
func ParseLine(log *slog.Logger, line []byte, lineNumber int) (Message, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, nil
	}

	value, err := jsonval.Decode(trimmed)
	if err != nil {
		return nil, &errors.ParseError{
			Line:       string(line),
			LineNumber: lineNumber,
			Err:        err,
		}
	}

	obj, ok := value.(jsonval.Object)
	if !ok {
		log.Debug("Dropping non-object line", "line_number", lineNumber)

		return nil, nil
	}

	msgType, ok := obj.String("type")
	if !ok {
		log.Debug("Dropping line without type discriminator", "line_number", lineNumber)

		return nil, nil
	}

	var msg Message

	switch msgType {
	case "user":
		msg, err = parseUserMessage(obj)
	case "assistant":
		msg, err = parseAssistantMessage(obj)
	case "system":
		msg, err = parseSystemMessage(obj)
	case "result":
		msg, err = parseResultMessage(obj)
	default:
		log.Debug("Dropping unknown message type",
			"line_number", lineNumber, "message_type", msgType)

		return nil, nil
	}

	if err != nil {
		log.Debug("Dropping malformed message",
			"line_number", lineNumber, "message_type", msgType, "error", err)

		return nil, nil
	}

	return msg, nil
}

// parseUserMessage extracts a UserMessage. The content string may appear at
// the top level or nested under "message", depending on CLI version.
func parseUserMessage(obj jsonval.Object) (*UserMessage, error) {
	if content, ok := obj.String("content"); ok {
		return &UserMessage{Content: content}, nil
	}

	if inner, ok := obj.Object("message"); ok {
		if content, ok := inner.String("content"); ok {
			return &UserMessage{Content: content}, nil
		}
	}

	return nil, fmt.Errorf("user message: missing content field")
}

// parseAssistantMessage extracts an AssistantMessage from the nested
// "message" wire envelope.
func parseAssistantMessage(obj jsonval.Object) (*AssistantMessage, error) {
	inner, ok := obj.Object("message")
	if !ok {
		return nil, fmt.Errorf("assistant message: missing 'message' field")
	}

	msg := &AssistantMessage{}

	if blocks, ok := inner.Array("content"); ok {
		content, err := parseContentBlocks(blocks)
		if err != nil {
			return nil, fmt.Errorf("assistant content: %w", err)
		}

		msg.Content = content
	}

	return msg, nil
}

func parseSystemMessage(obj jsonval.Object) (*SystemMessage, error) {
	subtype, ok := obj.String("subtype")
	if !ok {
		return nil, fmt.Errorf("system message: missing 'subtype' field")
	}

	msg := &SystemMessage{Subtype: subtype}

	// Some CLI versions nest the payload under "data"; init messages put
	// everything at the top level instead.
	if data, ok := obj.Object("data"); ok {
		msg.Data = data
	} else {
		msg.Data = make(jsonval.Object)

		for k, v := range obj {
			if k != "type" && k != "subtype" {
				msg.Data[k] = v
			}
		}
	}

	return msg, nil
}

func parseResultMessage(obj jsonval.Object) (*ResultMessage, error) {
	subtype, ok := obj.String("subtype")
	if !ok {
		return nil, fmt.Errorf("result message: missing 'subtype' field")
	}

	msg := &ResultMessage{Subtype: subtype}

	if v, ok := obj.Int("duration_ms"); ok {
		msg.DurationMs = int(v)
	}

	if v, ok := obj.Int("duration_api_ms"); ok {
		msg.DurationAPIMs = int(v)
	}

	if v, ok := obj.Bool("is_error"); ok {
		msg.IsError = v
	}

	if v, ok := obj.Int("num_turns"); ok {
		msg.NumTurns = int(v)
	}

	if v, ok := obj.String("session_id"); ok {
		msg.SessionID = v
	}

	if v, ok := obj.Float("total_cost_usd"); ok {
		msg.TotalCostUSD = &v
	}

	if v, ok := obj.Object("usage"); ok {
		msg.Usage = v
	}

	if v, ok := obj.String("result"); ok {
		msg.Result = &v
	}

	return msg, nil
}

func parseContentBlocks(blocks jsonval.Array) ([]ContentBlock, error) {
	content := make([]ContentBlock, 0, len(blocks))

	for i, item := range blocks {
		blockObj, ok := item.(jsonval.Object)
		if !ok {
			return nil, fmt.Errorf("content block %d: not an object", i)
		}

		block, err := parseContentBlock(blockObj)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}

		content = append(content, block)
	}

	return content, nil
}

func parseContentBlock(obj jsonval.Object) (ContentBlock, error) {
	blockType, ok := obj.String("type")
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}

	switch blockType {
	case BlockTypeText:
		text, _ := obj.String("text")

		return &TextBlock{Text: text}, nil

	case BlockTypeToolUse:
		block := &ToolUseBlock{}
		block.ID, _ = obj.String("id")
		block.Name, _ = obj.String("name")
		block.Input, _ = obj.Object("input")

		return block, nil

	case BlockTypeToolResult:
		block := &ToolResultBlock{}
		block.ToolUseID, _ = obj.String("tool_use_id")

		if content, ok := obj.String("content"); ok {
			block.Content = &content
		}

		if isError, ok := obj.Bool("is_error"); ok {
			block.IsError = &isError
		}

		return block, nil

	default:
		// Unknown block types degrade to a text block so new CLI content
		// kinds don't break older consumers.
		text, _ := obj.String("text")

		return &TextBlock{Text: text}, nil
	}
}
