package intcode

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type funcPrompter func() (string, error)

func (f funcPrompter) Prompt() (string, error) { return f() }

func TestChannelRead(t *testing.T) {
	prompted := 0
	c := &Channel{
		Queue: []Word{4, -5},
		Prompt: funcPrompter(func() (string, error) {
			prompted++
			return "6\n", nil
		}),
	}
	for _, want := range []Word{4, -5, 6, 6} {
		v, err := c.Read()
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
	require.Equal(t, 2, prompted)
	require.Empty(t, c.Queue)
}

func TestChannelReadErrors(t *testing.T) {
	c := &Channel{}
	_, err := c.Read()
	require.ErrorIs(t, err, InputExhausted)

	c.Prompt = funcPrompter(func() (string, error) { return "", io.EOF })
	_, err = c.Read()
	require.ErrorIs(t, err, InputExhausted)

	c.Prompt = funcPrompter(func() (string, error) { return "1.5", nil })
	_, err = c.Read()
	require.ErrorIs(t, err, InputUnparseable)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "1.5", ie.Line)

	boom := errors.New("boom")
	c.Prompt = funcPrompter(func() (string, error) { return "", boom })
	_, err = c.Read()
	require.ErrorIs(t, err, boom)
}

func TestChannelWrite(t *testing.T) {
	var c Channel
	for _, v := range []Word{3, 1, 2} {
		c.Write(v)
	}
	require.Equal(t, []Word{3, 1, 2}, c.Output)
}

func TestParseInput(t *testing.T) {
	q, err := ParseInput("")
	require.NoError(t, err)
	require.Empty(t, q)

	q, err = ParseInput(" 1,-2\n")
	require.NoError(t, err)
	require.Equal(t, []Word{1, -2}, q)

	_, err = ParseInput("1 2")
	require.ErrorIs(t, err, MalformedProgram)
}

func TestLinePrompter(t *testing.T) {
	var out strings.Builder
	p := NewLinePrompter(strings.NewReader("1\n2"), &out)
	for _, want := range []string{"1\n", "2"} {
		line, err := p.Prompt()
		require.NoError(t, err)
		require.Equal(t, want, line)
	}
	_, err := p.Prompt()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, "input> input> input> ", out.String())
}
