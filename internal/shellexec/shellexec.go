package shellexec

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"pkt.systems/pslog"
)

// Report captures the outcome of one command execution. A nonzero exit code is
// ordinary data, never an error of the executor.
type Report struct {
	Command  string
	ExitCode int
	Output   string
}

// String formats the report for feeding back into a conversation.
func (r Report) String() string {
	return fmt.Sprintf("Command: %s\nExit code: %d\nOutput:\n%s", r.Command, r.ExitCode, r.Output)
}

// Executor runs shell commands through the user's shell.
type Executor interface {
	Run(ctx context.Context, command string) Report
}

// Runner executes commands via "$SHELL -c", echoing combined output to out.
type Runner struct {
	out io.Writer
	log pslog.Logger
}

// NewRunner constructs an executor that writes command output to out.
func NewRunner(out io.Writer, logger pslog.Logger) *Runner {
	return &Runner{out: out, log: logger}
}

// Run executes command and returns the captured report. Stdout and stderr are
// combined; failure to even start the shell is reported with exit code -1.
func (r *Runner) Run(ctx context.Context, command string) Report {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	if r.log != nil {
		r.log.Debug("exec start", "shell", shell, "command", command)
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
			output = append(output, []byte(err.Error()+"\n")...)
		}
	}
	if r.out != nil {
		_, _ = r.out.Write(output)
	}
	if r.log != nil {
		r.log.Debug("exec done", "exit_code", exitCode, "output_len", len(output))
	}
	return Report{Command: command, ExitCode: exitCode, Output: string(output)}
}
