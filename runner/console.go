package runner

import (
	"context"
	"io"
	"sync"
)

// Console is an intcode.Prompter fed with lines by Send, for use when
// standard input is not available to the program, as under the debugger.
type Console struct {
	// Waiting, if non-nil, is called when the program blocks for input.
	Waiting func()

	ctx   context.Context
	lines chan string
	once  sync.Once

	mu   sync.Mutex
	intr chan struct{}
}

// NewConsole returns a Console. Prompt reports io.EOF once ctx is done.
func NewConsole(ctx context.Context) *Console {
	return &Console{
		ctx:   ctx,
		lines: make(chan string, 64),
		intr:  make(chan struct{}),
	}
}

// Interrupt makes a pending Prompt report io.EOF. It has no effect on
// later calls to Prompt.
func (c *Console) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	close(c.intr)
	c.intr = make(chan struct{})
}

func (c *Console) interrupted() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intr
}

// Send queues a line of input. It must not be called after Close.
func (c *Console) Send(line string) {
	select {
	case c.lines <- line:
	case <-c.ctx.Done():
	}
}

// Close marks the end of input. Pending lines are still delivered.
func (c *Console) Close() {
	c.once.Do(func() { close(c.lines) })
}

func (c *Console) Prompt() (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	default:
	}
	intr := c.interrupted()
	if c.Waiting != nil {
		c.Waiting()
	}
	select {
	case <-intr:
		return "", io.EOF
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.ctx.Done():
		return "", io.EOF
	}
}
