package console

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
)

// Terminal reads input with line editing; the prompt is shown inline.
type Terminal struct {
	ln  *liner.State
	out io.Writer
}

func NewTerminal() *Terminal {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	return &Terminal{ln: ln, out: os.Stdout}
}

// IsTerminal reports whether stdin and stdout are both attached to a terminal.
func IsTerminal() bool {
	return liner.TerminalSupported() && isCharDevice(os.Stdin) && isCharDevice(os.Stdout)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func (t *Terminal) WriteLine(s string) error {
	if _, err := fmt.Fprintln(t.out, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	line, err := t.ln.Prompt(prompt)
	if errors.Is(err, io.EOF) {
		return "", ErrNoInput
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	t.ln.AppendHistory(line)
	return line, nil
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	return t.ln.Close()
}
