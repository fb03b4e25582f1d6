package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Console is the line I/O used by the print and inputi builtins.
type Console interface {
	// WriteLine emits s followed by a newline.
	WriteLine(s string) error
	// ReadLine shows prompt (when non-empty) and reads one line without its terminator.
	ReadLine(prompt string) (string, error)
}

var ErrNoInput = errors.New("no input available")

// Stream is a Console over plain reader and writer streams.
type Stream struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStream(in io.Reader, out io.Writer) *Stream {
	return &Stream{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (s *Stream) WriteLine(str string) error {
	if _, err := fmt.Fprintln(s.out, str); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (s *Stream) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		if err := s.WriteLine(prompt); err != nil {
			return "", err
		}
	}

	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrNoInput
			}
		} else {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
