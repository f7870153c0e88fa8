package main

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// stdinEOFMarker ends piped input early so the rest of the pipe stays
// available to whatever runs after shellm.
const stdinEOFMarker = "__shellm__eof__"

// gatherPrompt assembles the prompt from positional arguments, piped stdin
// and optionally $EDITOR. Piped input comes first so arguments can pose a
// question about it.
func gatherPrompt(args []string, useEditor bool) (string, error) {
	arg := strings.TrimSpace(strings.Join(args, " "))
	var piped string
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		piped = readPiped(os.Stdin)
	}
	prompt := combinePrompt(piped, arg)
	if prompt == "" && useEditor {
		return editorPrompt()
	}
	return prompt, nil
}

func combinePrompt(piped, arg string) string {
	switch {
	case piped != "" && arg != "":
		return piped + "\n\n" + arg
	case piped != "":
		return piped
	default:
		return arg
	}
}

func readPiped(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == stdinEOFMarker {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// interactiveReader returns stdin when it is a terminal, otherwise it reopens
// the controlling terminal so interactive prompts keep working after piped
// input has been consumed.
func interactiveReader() (io.Reader, func(), error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return os.Stdin, func() {}, nil
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, err
	}
	return tty, func() { _ = tty.Close() }, nil
}

func editorPrompt() (string, error) {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	tmp, err := os.CreateTemp("", "shellm-prompt-*.txt")
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	// $EDITOR may carry arguments, e.g. "code --wait".
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
