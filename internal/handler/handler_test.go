package handler

import (
	"context"
	"strings"
	"testing"

	"pkt.systems/shellm/internal/chatstore"
	"pkt.systems/shellm/internal/render"
	"pkt.systems/shellm/internal/role"
	"pkt.systems/shellm/internal/shellexec"
	"pkt.systems/shellm/schema"
)

type fakeSource struct {
	responses []string
	calls     [][]schema.Message
}

func (f *fakeSource) Stream(_ context.Context, messages []schema.Message, _ schema.ChatOptions) (<-chan string, <-chan error) {
	f.calls = append(f.calls, messages)
	response := "ok"
	if len(f.responses) > 0 {
		idx := len(f.calls) - 1
		if idx >= len(f.responses) {
			idx = len(f.responses) - 1
		}
		response = f.responses[idx]
	}
	content := make(chan string, 1)
	errs := make(chan error, 1)
	content <- response
	close(content)
	close(errs)
	return content, errs
}

type fakeExecutor struct {
	commands []string
}

func (f *fakeExecutor) Run(_ context.Context, command string) shellexec.Report {
	f.commands = append(f.commands, command)
	return shellexec.Report{Command: command, ExitCode: 0, Output: "done\n"}
}

func newTestBase(t *testing.T, r role.SystemRole, source *fakeSource, out *strings.Builder) Base {
	t.Helper()
	return Base{
		Role:    r,
		Source:  source,
		Printer: render.NewPrinter(out, false),
	}
}

func newTestStore(t *testing.T) *chatstore.Store {
	t.Helper()
	store, err := chatstore.NewStore(t.TempDir(), 20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestDefaultHandlerStateless(t *testing.T) {
	source := &fakeSource{responses: []string{"answer"}}
	var out strings.Builder
	h := NewDefault(newTestBase(t, role.Default(), source, &out))
	got, err := h.Handle(context.Background(), "hi", schema.ChatOptions{})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got != "answer" {
		t.Fatalf("completion mismatch: %q", got)
	}
	if len(source.calls) != 1 {
		t.Fatalf("expected one completion call, got %d", len(source.calls))
	}
	messages := source.calls[0]
	if len(messages) != 2 || messages[0].Role != schema.RoleSystem || messages[1] != schema.UserMessage("hi") {
		t.Fatalf("unexpected messages: %+v", messages)
	}
	if !strings.Contains(out.String(), "answer") {
		t.Fatalf("completion was not printed")
	}
}

func TestChatHandlerPersistsTurn(t *testing.T) {
	source := &fakeSource{responses: []string{"first", "second"}}
	var out strings.Builder
	store := newTestStore(t)
	h := NewChat(newTestBase(t, role.Default(), source, &out), store, "s1")

	if _, err := h.Handle(context.Background(), "one", schema.ChatOptions{}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	messages, err := store.Read("s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected system+user+assistant, got %d", len(messages))
	}
	if messages[0].Role != schema.RoleSystem {
		t.Fatalf("first stored message should be the system anchor")
	}
	if messages[2] != schema.AssistantMessage("first") {
		t.Fatalf("assistant message mismatch: %+v", messages[2])
	}

	if _, err := h.Handle(context.Background(), "two", schema.ChatOptions{}); err != nil {
		t.Fatalf("second handle: %v", err)
	}
	// The second turn must carry the stored history plus the new prompt.
	second := source.calls[1]
	if len(second) != 4 {
		t.Fatalf("expected history+prompt, got %d messages", len(second))
	}
	if second[3] != schema.UserMessage("two") {
		t.Fatalf("prompt not appended: %+v", second[3])
	}
}

func TestChatHandlerEphemeralSession(t *testing.T) {
	source := &fakeSource{}
	var out strings.Builder
	store := newTestStore(t)
	h := NewChat(newTestBase(t, role.Default(), source, &out), store, schema.EphemeralSessionID)
	if _, err := h.Handle(context.Background(), "hi", schema.ChatOptions{}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.Exists(schema.EphemeralSessionID) {
		t.Fatalf("ephemeral session must never persist")
	}
}

func TestChatHandlerRoleMismatch(t *testing.T) {
	source := &fakeSource{}
	var out strings.Builder
	store := newTestStore(t)
	if err := store.Append("s1", schema.SystemMessage(role.Shell().Prompt())); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewChat(newTestBase(t, role.Code(), source, &out), store, "s1")
	if _, err := h.Handle(context.Background(), "hi", schema.ChatOptions{}); err == nil {
		t.Fatalf("expected role mismatch error")
	}
}

func TestQuestionMarker(t *testing.T) {
	cases := []struct {
		prompt string
		is     bool
		clean  string
	}{
		{"what is go??", true, "what is go"},
		{"what is go ??", true, "what is go"},
		{"what?", false, "what?"},
		{"line1\nline2??\n", false, "line1\nline2??\n"},
	}
	for _, tc := range cases {
		if IsQuestion(tc.prompt) != tc.is {
			t.Fatalf("IsQuestion(%q) != %v", tc.prompt, tc.is)
		}
		if got := StripMarker(tc.prompt); got != tc.clean {
			t.Fatalf("StripMarker(%q) = %q, want %q", tc.prompt, got, tc.clean)
		}
	}
}

func TestQuestionHandlerBuffersAndFrames(t *testing.T) {
	source := &fakeSource{responses: []string{"42"}}
	var out strings.Builder
	h := NewQuestion(newTestBase(t, role.Default(), source, &out))
	got, err := h.Handle(context.Background(), "meaning of life ??", schema.ChatOptions{})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got != "42" {
		t.Fatalf("completion mismatch: %q", got)
	}
	if source.calls[0][1] != schema.UserMessage("meaning of life") {
		t.Fatalf("marker not stripped: %+v", source.calls[0][1])
	}
	if !strings.Contains(out.String(), "Answer:") {
		t.Fatalf("framed answer missing from output: %q", out.String())
	}
}
