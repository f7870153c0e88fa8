package handler

import (
	"context"
	"strings"
	"testing"

	"pkt.systems/shellm/internal/chatstore"
	"pkt.systems/shellm/internal/render"
	"pkt.systems/shellm/internal/role"
	"pkt.systems/shellm/internal/safety"
	"pkt.systems/shellm/schema"
)

type replFixture struct {
	source   *fakeSource
	executor *fakeExecutor
	store    *chatstore.Store
	out      *strings.Builder
	repl     *ReplHandler
}

func newReplFixture(t *testing.T, r role.SystemRole, responses []string, autoApprove bool, input string) *replFixture {
	t.Helper()
	source := &fakeSource{responses: responses}
	executor := &fakeExecutor{}
	store := newTestStore(t)
	out := &strings.Builder{}
	printer := render.NewPrinter(out, false)
	base := Base{Role: r, Source: source, Printer: printer}
	chat := NewChat(base, store, "repl")
	describe := NewDefault(Base{Role: role.DescribeShell(), Source: source, Printer: printer})
	question := NewQuestion(Base{Role: role.Default(), Source: source, Printer: printer})
	classifier := safety.NewClassifier(safety.DefaultConfig())
	repl := NewRepl(chat, describe, question, executor, classifier, autoApprove, strings.NewReader(input), out)
	return &replFixture{source: source, executor: executor, store: store, out: out, repl: repl}
}

func TestReplDispatchesUntilExit(t *testing.T) {
	f := newReplFixture(t, role.Default(), []string{"r1", "r2"}, false, "hello\nworld\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.source.calls) != 2 {
		t.Fatalf("expected exactly two dispatched turns, got %d", len(f.source.calls))
	}
}

func TestReplEOFIsCleanExit(t *testing.T) {
	f := newReplFixture(t, role.Default(), nil, false, "hello\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("expected clean termination, got %v", err)
	}
	if len(f.source.calls) != 1 {
		t.Fatalf("expected one turn before EOF, got %d", len(f.source.calls))
	}
}

func TestReplCanceledContextIsCleanExit(t *testing.T) {
	f := newReplFixture(t, role.Default(), nil, false, "hello\nexit()\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.repl.Run(ctx, "", schema.ChatOptions{}); err != nil {
		t.Fatalf("expected clean termination, got %v", err)
	}
	if len(f.source.calls) != 0 {
		t.Fatalf("no turns should dispatch after cancellation")
	}
}

func TestReplMultilinePrompt(t *testing.T) {
	input := "\"\"\"\nline1\nline2??\n\"\"\"\nexit()\n"
	f := newReplFixture(t, role.Default(), []string{"r"}, false, input)
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.source.calls) != 1 {
		t.Fatalf("expected exactly one dispatched turn, got %d", len(f.source.calls))
	}
	messages := f.source.calls[0]
	prompt := messages[len(messages)-1]
	if prompt != schema.UserMessage("line1\nline2??\n") {
		t.Fatalf("effective prompt mismatch: %q", prompt.Content)
	}
}

func TestReplInitPromptConsumedOnce(t *testing.T) {
	f := newReplFixture(t, role.Default(), []string{"r1", "r2"}, false, "first\nsecond\nexit()\n")
	if err := f.repl.Run(context.Background(), "context from stdin", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	first := f.source.calls[0]
	if first[len(first)-1] != schema.UserMessage("context from stdin\n\n\nfirst") {
		t.Fatalf("init prompt not folded into first turn: %q", first[len(first)-1].Content)
	}
	second := f.source.calls[1]
	if second[len(second)-1] != schema.UserMessage("second") {
		t.Fatalf("init prompt must be consumed exactly once: %q", second[len(second)-1].Content)
	}
}

func TestReplShellAutoApproveSafeCommand(t *testing.T) {
	f := newReplFixture(t, role.Shell(), []string{"ls -la"}, true, "list files\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.executor.commands) != 1 || f.executor.commands[0] != "ls -la" {
		t.Fatalf("expected ls -la to auto-execute, got %v", f.executor.commands)
	}
	messages, err := f.store.Read("repl")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	last := messages[len(messages)-1]
	if last.Role != schema.RoleSystem || !strings.Contains(last.Content, "Shell command executed:") {
		t.Fatalf("command output was not fed back as a system message: %+v", last)
	}
}

func TestReplShellUnsafeCommandAborted(t *testing.T) {
	f := newReplFixture(t, role.Shell(), []string{"rm -rf /tmp/x"}, true, "clean up\na\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.executor.commands) != 0 {
		t.Fatalf("unsafe command must not execute on abort, got %v", f.executor.commands)
	}
	if !strings.Contains(f.out.String(), "Command aborted.") {
		t.Fatalf("abort message missing: %q", f.out.String())
	}
}

func TestReplShellUnsafeCommandConfirmed(t *testing.T) {
	f := newReplFixture(t, role.Shell(), []string{"rm -rf /tmp/x"}, true, "clean up\ne\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.executor.commands) != 1 || f.executor.commands[0] != "rm -rf /tmp/x" {
		t.Fatalf("confirmed command should execute, got %v", f.executor.commands)
	}
}

func TestReplShellExecuteLastCompletion(t *testing.T) {
	f := newReplFixture(t, role.Shell(), []string{"echo hi"}, false, "say hi\ne\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.executor.commands) != 1 || f.executor.commands[0] != "echo hi" {
		t.Fatalf("expected e to execute the last completion, got %v", f.executor.commands)
	}
}

func TestReplShellDescribeDoesNotPersist(t *testing.T) {
	f := newReplFixture(t, role.Shell(), []string{"echo hi", "prints hi"}, false, "say hi\nd\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.source.calls) != 2 {
		t.Fatalf("expected chat turn plus describe turn, got %d", len(f.source.calls))
	}
	messages, err := f.store.Read("repl")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// Only the chat turn persists: system anchor, user prompt, assistant.
	if len(messages) != 3 {
		t.Fatalf("describe turn must not be persisted, got %d messages", len(messages))
	}
}

func TestReplQuestionTurnNotPersisted(t *testing.T) {
	f := newReplFixture(t, role.Default(), []string{"an answer"}, false, "why is the sky blue??\nexit()\n")
	if err := f.repl.Run(context.Background(), "", schema.ChatOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.source.calls) != 1 {
		t.Fatalf("expected one question turn, got %d", len(f.source.calls))
	}
	if f.store.Exists("repl") {
		t.Fatalf("question turns are stateless and must not persist")
	}
	if !strings.Contains(f.out.String(), "Answer:") {
		t.Fatalf("framed answer missing")
	}
}
