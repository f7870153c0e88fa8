// Package handler composes conversation turns out of a shared capability set:
// building the message list, running a completion, and persisting the result.
// Variants delegate to the shared base and add or override discrete steps
// rather than inheriting from each other.
package handler

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/shellm/internal/completion"
	"pkt.systems/shellm/internal/render"
	"pkt.systems/shellm/internal/role"
	"pkt.systems/shellm/schema"
)

// Base holds the capabilities shared by every handler variant.
type Base struct {
	Role    role.SystemRole
	Source  completion.Source
	Printer *render.Printer
	Log     pslog.Logger
}

// MakeMessages builds the stateless message list for a prompt.
func (b *Base) MakeMessages(prompt string) []schema.Message {
	return []schema.Message{
		schema.SystemMessage(b.Role.Prompt()),
		schema.UserMessage(prompt),
	}
}

// Complete runs one completion over messages and returns the concatenated
// text. The default rendering streams chunks as they arrive; when the printer
// buffers (markdown prettifying), the completion is collected first and
// rendered once.
func (b *Base) Complete(ctx context.Context, messages []schema.Message, opts schema.ChatOptions) (string, error) {
	content, errs := b.Source.Stream(ctx, messages, opts)
	if b.Printer == nil || b.Printer.Buffered() {
		full, err := completion.Collect(content, errs)
		if err != nil {
			return full, err
		}
		if b.Printer != nil {
			b.Printer.Full(full)
		}
		return full, nil
	}
	var full string
	for chunk := range content {
		b.Printer.Chunk(chunk)
		full += chunk
	}
	b.Printer.Newline()
	if err := <-errs; err != nil {
		return full, err
	}
	return full, nil
}
