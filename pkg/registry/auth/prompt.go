package auth

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalPrompter prompts on a terminal attached to In.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter returns a prompter reading from stdin and writing the prompt to stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{
		In:  os.Stdin,
		Out: os.Stderr,
	}
}

// Interactive reports whether In is a terminal.
func (p *TerminalPrompter) Interactive() bool {
	return term.IsTerminal(int(p.In.Fd()))
}

// ReadPassword writes prompt to Out and reads a password from In without echo.
func (p *TerminalPrompter) ReadPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.Out, prompt)

	password, err := term.ReadPassword(int(p.In.Fd()))

	_, _ = fmt.Fprintln(p.Out)

	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return string(password), nil
}
