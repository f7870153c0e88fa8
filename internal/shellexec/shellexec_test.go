package shellexec

import (
	"context"
	"strings"
	"testing"
)

func TestRunCapturesOutput(t *testing.T) {
	var buf strings.Builder
	runner := NewRunner(&buf, nil)
	report := runner.Run(context.Background(), "echo hello")
	if report.ExitCode != 0 {
		t.Fatalf("exit code: %d", report.ExitCode)
	}
	if !strings.Contains(report.Output, "hello") {
		t.Fatalf("output missing: %q", report.Output)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("output was not echoed to writer")
	}
}

func TestRunNonzeroExitIsData(t *testing.T) {
	runner := NewRunner(nil, nil)
	report := runner.Run(context.Background(), "exit 3")
	if report.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", report.ExitCode)
	}
}

func TestReportFormat(t *testing.T) {
	report := Report{Command: "ls", ExitCode: 0, Output: "a\nb\n"}
	want := "Command: ls\nExit code: 0\nOutput:\na\nb\n"
	if report.String() != want {
		t.Fatalf("report format mismatch:\nwant: %q\ngot:  %q", want, report.String())
	}
}
