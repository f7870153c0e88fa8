// Package render owns terminal output: incremental streaming, markdown
// prettifying, rules and the framed question-answer display.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 80

var (
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle  = lipgloss.NewStyle().Faint(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Printer writes assistant output to a terminal-ish writer.
type Printer struct {
	w        io.Writer
	markdown bool
	renderer *glamour.TermRenderer
}

// NewPrinter constructs a printer. With markdown enabled, completions are
// buffered and prettified instead of streamed raw.
func NewPrinter(w io.Writer, markdown bool) *Printer {
	return &Printer{w: w, markdown: markdown}
}

// Writer exposes the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Buffered reports whether completions should be collected before rendering.
func (p *Printer) Buffered() bool {
	return p.markdown
}

// Chunk writes one streamed chunk verbatim.
func (p *Printer) Chunk(text string) {
	_, _ = io.WriteString(p.w, text)
}

// Newline terminates a streamed completion.
func (p *Printer) Newline() {
	_, _ = io.WriteString(p.w, "\n")
}

// Full renders a complete completion, prettified when markdown is enabled.
func (p *Printer) Full(text string) {
	if !p.markdown {
		_, _ = io.WriteString(p.w, text+"\n")
		return
	}
	if p.renderer == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(ruleWidth),
		)
		if err != nil {
			_, _ = io.WriteString(p.w, text+"\n")
			return
		}
		p.renderer = renderer
	}
	rendered, err := p.renderer.Render(text)
	if err != nil {
		_, _ = io.WriteString(p.w, text+"\n")
		return
	}
	_, _ = io.WriteString(p.w, rendered)
}

// Rule prints a horizontal rule, optionally titled.
func (p *Printer) Rule(title string) {
	var line string
	if title == "" {
		line = strings.Repeat("─", ruleWidth)
	} else {
		rest := ruleWidth - len(title) - 8
		if rest < 3 {
			rest = 3
		}
		line = fmt.Sprintf("%s %s %s", strings.Repeat("─", 3), title, strings.Repeat("─", rest))
	}
	fmt.Fprintln(p.w, ruleStyle.Render(line))
}

// Notice prints an informational line.
func (p *Printer) Notice(text string) {
	fmt.Fprintln(p.w, noticeStyle.Render(text))
}

// Alert prints a warning line.
func (p *Printer) Alert(text string) {
	fmt.Fprintln(p.w, alertStyle.Render(text))
}

// Answer prints a question-turn response with distinguishing framing: a dim
// label followed by the indented, colored response body.
func (p *Printer) Answer(text string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, labelStyle.Render("💡 Answer:"))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	fmt.Fprintln(p.w, answerStyle.Render(strings.Join(lines, "\n")))
}
