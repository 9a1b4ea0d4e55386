// Package jsonutil parses structured JSON answers from Gemini, which may
// arrive wrapped in markdown code fences even when JSON mode is requested.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a model response that is not valid JSON for the
// expected shape. It is never retried: a malformed answer is not transient.
type ParseError struct {
	Reason  string
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	msg := "malformed model response: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Preview != "" {
		msg += " (text: " + e.Preview + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StripMarkdownFences removes every ```json and ``` marker from text and
// trims the result.
func StripMarkdownFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseJSON strips markdown fences from raw model text and unmarshals the
// remainder into T. Any failure is returned as a *ParseError.
func ParseJSON[T any](raw string) (T, error) {
	var result T

	text := StripMarkdownFences(raw)
	if text == "" {
		return result, &ParseError{Reason: "empty response"}
	}

	if err := json.Unmarshal([]byte(text), &result); err != nil {
		var zero T
		return zero, &ParseError{Reason: "invalid JSON", Preview: preview(text), Err: err}
	}
	return result, nil
}

// Invalid builds a *ParseError for a response that decoded but violates the
// expected structure.
func Invalid(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

func preview(text string) string {
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}
