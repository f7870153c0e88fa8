package handler

import (
	"context"

	"pkt.systems/shellm/schema"
)

// DefaultHandler runs stateless turns: no history, nothing persisted.
type DefaultHandler struct {
	Base
}

// NewDefault constructs a stateless handler.
func NewDefault(base Base) *DefaultHandler {
	return &DefaultHandler{Base: base}
}

// Handle runs one completion turn for prompt.
func (h *DefaultHandler) Handle(ctx context.Context, prompt string, opts schema.ChatOptions) (string, error) {
	return h.Complete(ctx, h.MakeMessages(prompt), opts)
}
