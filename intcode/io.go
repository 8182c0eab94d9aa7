package intcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter supplies interactive input, one line per call.
// It returns io.EOF when no more input is available.
type Prompter interface {
	Prompt() (string, error)
}

// Channel connects a Machine to its inputs and outputs.
// Reads consume Queue first and fall back to Prompt when it is empty.
// A nil Prompt disables the interactive fallback.
type Channel struct {
	Queue  []Word
	Prompt Prompter
	Output []Word
}

// Read returns the next input value.
func (c *Channel) Read() (Word, error) {
	if len(c.Queue) > 0 {
		v := c.Queue[0]
		c.Queue = c.Queue[1:]
		return v, nil
	}
	if c.Prompt == nil {
		return 0, InputExhausted
	}
	line, err := c.Prompt.Prompt()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %v", InputExhausted, err)
	} else if err != nil {
		return 0, err
	}
	line = strings.TrimSpace(line)
	v, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, &InputError{Line: line, Err: err}
	}
	return v, nil
}

// Write appends v to the output trace.
func (c *Channel) Write(v Word) {
	c.Output = append(c.Output, v)
}

// InputError reports an interactive input line that is not an integer.
type InputError struct {
	Line string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %q: %v", e.Line, e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool { return target == InputUnparseable }

// LinePrompter reads input lines from a reader, writing Text to W before
// each read if W is non-nil.
type LinePrompter struct {
	R    *bufio.Reader
	W    io.Writer
	Text string
}

// NewLinePrompter returns a LinePrompter reading from r and prompting on w.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{R: bufio.NewReader(r), W: w, Text: "input> "}
}

func (p *LinePrompter) Prompt() (string, error) {
	if p.W != nil {
		io.WriteString(p.W, p.Text)
	}
	line, err := p.R.ReadString('\n')
	if err == io.EOF && line != "" {
		// Final line without a newline.
		return line, nil
	}
	return line, err
}
