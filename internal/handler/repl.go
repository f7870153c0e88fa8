package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"pkt.systems/shellm/internal/safety"
	"pkt.systems/shellm/internal/shellexec"
	"pkt.systems/shellm/schema"
)

const (
	multilineMarker = `"""`
	exitCommand     = "exit()"
	// initPromptSeparator joins a pending init prompt with the first typed line.
	initPromptSeparator = "\n\n\n"
)

// ReplHandler drives the read-eval-print loop on top of a session-backed
// handler. Input is read line by line from an injected reader so the loop is
// testable without a terminal; EOF and context cancellation are clean exits,
// exactly like typing exit().
type ReplHandler struct {
	chat        *ChatHandler
	describe    *DefaultHandler
	question    *QuestionHandler
	executor    shellexec.Executor
	classifier  *safety.Classifier
	autoApprove bool

	in  *bufio.Reader
	out io.Writer
}

// NewRepl constructs a REPL over the given session-backed handler. The
// describe handler runs the one-shot "describe this command" turns and is
// never persisted into the shell conversation.
func NewRepl(chat *ChatHandler, describe *DefaultHandler, question *QuestionHandler, executor shellexec.Executor, classifier *safety.Classifier, autoApprove bool, in io.Reader, out io.Writer) *ReplHandler {
	return &ReplHandler{
		chat:        chat,
		describe:    describe,
		question:    question,
		executor:    executor,
		classifier:  classifier,
		autoApprove: autoApprove,
		in:          bufio.NewReader(in),
		out:         out,
	}
}

// Run loops until exit() is typed, input ends, or ctx is canceled. A pending
// init prompt is folded into the first dispatched turn and consumed exactly
// once.
func (h *ReplHandler) Run(ctx context.Context, initPrompt string, opts schema.ChatOptions) error {
	h.printBanner()
	if initPrompt != "" {
		h.chat.Printer.Rule("Input")
		fmt.Fprintln(h.out, initPrompt)
		h.chat.Printer.Rule("")
	}

	var lastCompletion string
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, ok := h.readLine(">>> ")
		if !ok {
			return nil
		}
		if line == multilineMarker {
			var done bool
			line, done = h.readMultiline()
			if !done {
				return nil
			}
		}
		if line == exitCommand {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if initPrompt != "" {
			line = initPrompt + initPromptSeparator + line
			initPrompt = ""
		}

		shellRole := h.chat.Role.IsShell()
		switch {
		case shellRole && line == "e":
			fmt.Fprintln(h.out)
			if err := h.execute(ctx, lastCompletion); err != nil {
				return err
			}
			fmt.Fprintln(h.out)
			h.chat.Printer.Rule("")
		case shellRole && line == "d":
			if _, err := h.describe.Handle(ctx, lastCompletion, opts); err != nil {
				return err
			}
		case IsQuestion(line):
			if _, err := h.question.Handle(ctx, line, opts); err != nil {
				return err
			}
		default:
			full, err := h.chat.Handle(ctx, line, opts)
			if err != nil {
				return err
			}
			lastCompletion = full
			if h.autoApprove && shellRole {
				if err := h.gateAndExecute(ctx, lastCompletion); err != nil {
					return err
				}
			}
		}
	}
}

// gateAndExecute consults the safety classifier and either executes
// immediately or blocks on an explicit execute/abort confirmation.
func (h *ReplHandler) gateAndExecute(ctx context.Context, command string) error {
	if h.classifier.IsSafeToAutoExecute(command, h.autoApprove) {
		fmt.Fprintln(h.out)
		if err := h.execute(ctx, command); err != nil {
			return err
		}
	} else {
		h.chat.Printer.Notice("Potentially unsafe command detected:")
		fmt.Fprintln(h.out, command)
		choice, ok := h.readLine("[E]xecute, [A]bort: ")
		if !ok {
			return nil
		}
		if strings.EqualFold(strings.TrimSpace(choice), "e") {
			fmt.Fprintln(h.out)
			if err := h.execute(ctx, command); err != nil {
				return err
			}
		} else {
			h.chat.Printer.Alert("Command aborted.")
		}
	}
	fmt.Fprintln(h.out)
	h.chat.Printer.Rule("")
	return nil
}

// execute runs the command and feeds the captured report back into the
// session as a synthetic system message.
func (h *ReplHandler) execute(ctx context.Context, command string) error {
	report := h.executor.Run(ctx, command)
	return h.chat.AddSystemMessage(fmt.Sprintf("Shell command executed:\n```\n%s\n```", report.String()))
}

func (h *ReplHandler) printBanner() {
	if h.chat.Initiated() {
		h.chat.Printer.Rule("Chat History")
		if transcript, err := h.chat.Transcript(); err == nil {
			_, _ = io.WriteString(h.out, transcript)
		}
		h.chat.Printer.Rule("")
	}
	switch {
	case !h.chat.Role.IsShell():
		h.chat.Printer.Notice("Entering REPL mode, press Ctrl+C to exit.")
	case h.autoApprove:
		h.chat.Printer.Notice("Entering shell REPL mode with auto-approve enabled, commands will execute automatically. Press Ctrl+C to exit.")
	default:
		h.chat.Printer.Notice("Entering shell REPL mode, type [e] to execute commands or [d] to describe the commands, press Ctrl+C to exit.")
	}
}

// readLine blocks for one line of input. The boolean is false when input has
// ended; that is the clean-termination path alongside exit().
func (h *ReplHandler) readLine(prompt string) (string, bool) {
	_, _ = io.WriteString(h.out, prompt)
	line, err := h.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), true
		}
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// readMultiline accumulates lines verbatim, each with its newline, until a
// line exactly equal to the multiline marker. The terminator is excluded.
func (h *ReplHandler) readMultiline() (string, bool) {
	var b strings.Builder
	for {
		line, ok := h.readLine("... ")
		if !ok {
			return "", false
		}
		if line == multilineMarker {
			return b.String(), true
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}
