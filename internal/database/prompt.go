package database

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks a human operator to resolve a missing database.
type Prompter interface {
	// Alert shows an error message.
	Alert(title, message string)
	// Confirm asks a yes/no question.
	Confirm(title, message string) bool
	// AskPath asks for a file path. ok is false when the operator gives none.
	AskPath(prompt string) (path string, ok bool)
}

// TerminalPrompter prompts on a terminal. When In is not a terminal every
// question is declined, so unattended runs fail instead of blocking.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter returns a prompter on stdin and stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) interactive() bool {
	return p.In != nil && term.IsTerminal(int(p.In.Fd()))
}

func (p *TerminalPrompter) readLine() (string, bool) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Alert implements Prompter.
func (p *TerminalPrompter) Alert(title, message string) {
	fmt.Fprintf(p.Out, "[ERROR] %s: %s\n", title, message)
}

// Confirm implements Prompter.
func (p *TerminalPrompter) Confirm(title, message string) bool {
	if !p.interactive() {
		return false
	}
	fmt.Fprintf(p.Out, "%s\n%s [y/N] ", title, message)
	answer, ok := p.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

// AskPath implements Prompter.
func (p *TerminalPrompter) AskPath(prompt string) (string, bool) {
	if !p.interactive() {
		return "", false
	}
	fmt.Fprint(p.Out, prompt)
	path, ok := p.readLine()
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

// DeclinePrompter reports the alert and declines every question.
type DeclinePrompter struct {
	Out io.Writer
}

// Alert implements Prompter.
func (p DeclinePrompter) Alert(title, message string) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, "[ERROR] %s: %s\n", title, message)
	}
}

// Confirm implements Prompter.
func (DeclinePrompter) Confirm(string, string) bool { return false }

// AskPath implements Prompter.
func (DeclinePrompter) AskPath(string) (string, bool) { return "", false }
