package handler

import (
	"context"
	"strings"

	"pkt.systems/shellm/internal/completion"
	"pkt.systems/shellm/schema"
)

// QuestionHandler answers prompts carrying a trailing "??" marker. The turn
// is stateless and the whole completion is collected before rendering so the
// answer can be framed as a unit.
type QuestionHandler struct {
	Base
}

// NewQuestion constructs a question handler.
func NewQuestion(base Base) *QuestionHandler {
	return &QuestionHandler{Base: base}
}

// IsQuestion reports whether prompt carries the question marker.
func IsQuestion(prompt string) bool {
	return strings.HasSuffix(prompt, "??")
}

// StripMarker removes exactly the trailing "??" and any whitespace before it.
func StripMarker(prompt string) string {
	if !IsQuestion(prompt) {
		return prompt
	}
	return strings.TrimRight(strings.TrimSuffix(prompt, "??"), " \t")
}

// Handle runs one buffered completion turn and prints it with the framed
// answer display.
func (h *QuestionHandler) Handle(ctx context.Context, prompt string, opts schema.ChatOptions) (string, error) {
	clean := strings.TrimSpace(StripMarker(prompt))
	content, errs := h.Source.Stream(ctx, h.MakeMessages(clean), opts)
	full, err := completion.Collect(content, errs)
	if err != nil {
		return full, err
	}
	if h.Printer != nil {
		h.Printer.Answer(full)
	}
	return full, nil
}
