package handler

import (
	"context"
	"fmt"

	"pkt.systems/shellm/internal/chatstore"
	"pkt.systems/shellm/schema"
)

// ChatHandler runs session-backed turns: history is read before the
// completion and the finished turn is appended afterwards.
type ChatHandler struct {
	Base
	store *chatstore.Store
	id    schema.SessionID
}

// NewChat constructs a session-backed handler for the given session id.
func NewChat(base Base, store *chatstore.Store, id schema.SessionID) *ChatHandler {
	return &ChatHandler{Base: base, store: store, id: id}
}

// SessionID returns the session this handler reads and writes.
func (h *ChatHandler) SessionID() schema.SessionID {
	return h.id
}

// Initiated reports whether the session already has a persisted record.
func (h *ChatHandler) Initiated() bool {
	return h.store.Exists(h.id)
}

// Transcript renders the stored session for display.
func (h *ChatHandler) Transcript() (string, error) {
	return h.store.Render(h.id)
}

// BuildMessages prepends stored history to the new prompt. An existing
// session started under a different built-in role is rejected rather than
// silently mixed.
func (h *ChatHandler) BuildMessages(prompt string) ([]schema.Message, error) {
	history, err := h.store.Read(h.id)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return h.MakeMessages(prompt), nil
	}
	if history[0].Role == schema.RoleSystem && !h.Role.Matches(history[0].Content) {
		return nil, fmt.Errorf("%w: session %q", schema.ErrRoleMismatch, h.id)
	}
	return append(history, schema.UserMessage(prompt)), nil
}

// Handle runs one completion turn and persists the user prompt and the
// assistant completion. The role's system prompt is written once, on the
// session's first turn, so it becomes the trim anchor.
func (h *ChatHandler) Handle(ctx context.Context, prompt string, opts schema.ChatOptions) (string, error) {
	messages, err := h.BuildMessages(prompt)
	if err != nil {
		return "", err
	}
	fresh := !h.Initiated()
	full, err := h.Complete(ctx, messages, opts)
	if err != nil {
		return full, err
	}
	if fresh {
		if err := h.store.Append(h.id, schema.SystemMessage(h.Role.Prompt())); err != nil {
			return full, err
		}
	}
	if err := h.store.Append(h.id, schema.UserMessage(prompt)); err != nil {
		return full, err
	}
	if err := h.store.Append(h.id, schema.AssistantMessage(full)); err != nil {
		return full, err
	}
	return full, nil
}

// AddSystemMessage appends a synthetic system message, used to feed command
// output back into the conversation.
func (h *ChatHandler) AddSystemMessage(content string) error {
	return h.store.Append(h.id, schema.SystemMessage(content))
}
