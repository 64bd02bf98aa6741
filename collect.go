package claudestream

import (
	"context"
	stderrors "errors"
)

// Collect runs Query to completion and returns all messages as a slice.
//
// Recoverable decode errors are skipped: a malformed output line does not
// cost the messages around it. Any fatal error aborts collection and is
// returned alongside the messages gathered so far.
//
// Use Collect when the caller has no interest in incremental delivery and
// just wants the conversation transcript.
func Collect(ctx context.Context, prompt string, opts ...Option) ([]Message, error) {
	var messages []Message

	for msg, err := range Query(ctx, prompt, opts...) {
		if err != nil {
			var parseErr *ParseError
			if stderrors.As(err, &parseErr) {
				continue
			}

			return messages, err
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

// FirstText runs Query until the assistant produces its first text block
// and returns that text, then terminates the subprocess.
//
// Returns the empty string with a nil error when the invocation completes
// without any assistant text. Fatal errors are returned as-is; recoverable
// decode errors are skipped.
func FirstText(ctx context.Context, prompt string, opts ...Option) (string, error) {
	for msg, err := range Query(ctx, prompt, opts...) {
		if err != nil {
			var parseErr *ParseError
			if stderrors.As(err, &parseErr) {
				continue
			}

			return "", err
		}

		assistant, ok := msg.(*AssistantMessage)
		if !ok {
			continue
		}

		for _, block := range assistant.Content {
			if text, ok := block.(*TextBlock); ok {
				return text.Text, nil
			}
		}
	}

	return "", nil
}
