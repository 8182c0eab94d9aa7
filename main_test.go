package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nf/nic/intcode"
	"github.com/nf/nic/runner"
)

func writeProgram(t *testing.T, text string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "prog.ic")
	require.NoError(t, os.WriteFile(f, []byte(text), 0o644))
	return f
}

func TestRun(t *testing.T) {
	for _, c := range []struct {
		name string
		cfg  config
		prog string
		out  string
		err  error
	}{
		{
			name: "echo",
			prog: "3,0,4,0,99\n",
			cfg:  config{input: "5"},
			out:  "5\n",
		},
		{
			name: "separator",
			prog: "104,1,104,-2,104,3,99",
			cfg:  config{sep: ","},
			out:  "1,-2,3\n",
		},
		{
			name: "memory",
			prog: "1,9,10,3,2,3,11,0,99,30,40,50",
			cfg:  config{printMemory: true},
			out:  "3500,9,10,70,2,3,11,0,99,30,40,50\n",
		},
		{
			name: "patched",
			prog: "1,0,0,0,99",
			cfg:  config{printMemory: true, sets: setFlag{{1, 4}, {2, 4}}},
			out:  "198,4,4,0,99\n",
		},
		{
			name: "exhausted",
			prog: "3,0,99",
			err:  intcode.InputExhausted,
		},
		{
			name: "step limit",
			prog: "1105,1,0",
			cfg:  config{maxSteps: 10},
			err:  runner.ErrStepLimit,
		},
		{
			name: "output before fault",
			prog: "104,7,1,0,0,100",
			out:  "7\n",
			err:  intcode.OutOfBounds,
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			cfg := c.cfg
			cfg.file = writeProgram(t, c.prog)
			cfg.noPrompt = true
			if cfg.sep == "" {
				cfg.sep = "\n"
			}
			var out bytes.Buffer
			err := run(cfg, &out)
			if c.err != nil {
				require.ErrorIs(t, err, c.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, c.out, out.String())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := load(config{file: writeProgram(t, "1,2,+3")})
	require.ErrorIs(t, err, intcode.MalformedProgram)

	_, err = load(config{file: writeProgram(t, "99"), input: "1;2"})
	require.ErrorIs(t, err, intcode.MalformedProgram)

	_, err = load(config{file: writeProgram(t, "99"), sets: setFlag{{5, 1}}})
	require.ErrorIs(t, err, intcode.OutOfBounds)

	_, err = load(config{file: filepath.Join(t.TempDir(), "missing.ic")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetFlag(t *testing.T) {
	var f setFlag
	require.NoError(t, f.Set("1=12"))
	require.NoError(t, f.Set(" 2 = -2 "))
	require.Equal(t, setFlag{{1, 12}, {2, -2}}, f)
	require.Equal(t, "1=12,2=-2", f.String())

	for _, bad := range []string{"1", "=1", "-1=0", "x=1", "1=y"} {
		require.Error(t, f.Set(bad), bad)
	}
	require.Len(t, f, 2)
}

func TestFormatWords(t *testing.T) {
	require.Equal(t, "", formatWords(nil, ","))
	require.Equal(t, "999", formatWords([]intcode.Word{999}, ","))
	require.Equal(t, "0\n0\n-3", formatWords([]intcode.Word{0, 0, -3}, "\n"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false)
	l.Debug("hidden")
	l.Info("shown")
	require.NoError(t, l.Sync())
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	l = newLogger(&buf, true)
	l.Debug("detail")
	require.Contains(t, buf.String(), "detail")
}

func TestLabels(t *testing.T) {
	ls, err := parseLabels(strings.NewReader(`
# day 5 comparison program
9 loop
0 start
9 loop_alias
21 input
`))
	require.NoError(t, err)
	require.Equal(t, labels{{0, "start"}, {9, "loop"}, {9, "loop_alias"}, {21, "input"}}, ls)

	require.Equal(t, []label{{9, "loop"}, {9, "loop_alias"}}, ls.forAddr(9))
	require.Empty(t, ls.forAddr(10))
	require.Equal(t, []label{{9, "loop"}, {9, "loop_alias"}}, ls.withPrefix("loop"))

	for _, c := range []struct {
		in   string
		want label
		ok   bool
	}{
		{"input", label{21, "input"}, true},
		{"0", label{0, "start"}, true},
		{"7", label{7, "7"}, true},
		{"-1", label{}, false},
		{"nope", label{}, false},
	} {
		got, ok := ls.resolve(c.in)
		require.Equal(t, c.ok, ok, c.in)
		require.Equal(t, c.want, got, c.in)
	}

	_, err = parseLabels(strings.NewReader("1 two words"))
	require.Error(t, err)
	_, err = parseLabels(strings.NewReader("x start"))
	require.Error(t, err)
}

func TestReadLabels(t *testing.T) {
	dir := t.TempDir()
	ls, err := readLabels(filepath.Join(dir, "missing.sym"))
	require.NoError(t, err)
	require.Nil(t, ls)

	f := filepath.Join(dir, "prog.sym")
	require.NoError(t, os.WriteFile(f, []byte("4 halt\n"), 0o644))
	ls, err = readLabels(f)
	require.NoError(t, err)
	require.Equal(t, labels{{4, "halt"}}, ls)

	require.Equal(t, filepath.Join("a", "prog.sym"), labelFile(filepath.Join("a", "prog.ic")))
	require.Equal(t, "prog.sym", labelFile("prog"))
}

func TestStateMsg(t *testing.T) {
	ls := labels{{0, "start"}}
	s := intcode.Snapshot{
		Cells:  []intcode.Word{1002, 4, 3, 4, 33},
		Output: []intcode.Word{1, 2},
		Steps:  3,
	}
	msg := stateMsg(ls, s, runner.BreakState)
	require.Contains(t, msg, "[break] start: mul [4] 3 [4]")
	require.Contains(t, msg, "steps: 3")
	require.Contains(t, msg, "out: 1,2")

	s.Err = errors.New("boom")
	require.Contains(t, stateMsg(ls, s, runner.FaultState), "[FAULT] boom")
}

func TestAllStates(t *testing.T) {
	require.Nil(t, allStates(nil))
	var got []runner.StateKind
	fn := func(_ intcode.Snapshot, k runner.StateKind) { got = append(got, k) }
	allStates([]runner.StateFunc{fn, fn})(intcode.Snapshot{}, runner.HaltState)
	require.Equal(t, []runner.StateKind{runner.HaltState, runner.HaltState}, got)
}

func TestFeedConsole(t *testing.T) {
	c := runner.NewConsole(context.Background())
	feedConsole(strings.NewReader("1\n2\n"), c)
	m, err := intcode.Load("3,0,3,1,1,0,1,0,4,0,99")
	require.NoError(t, err)
	m.IO.Prompt = c
	require.NoError(t, m.Run())
	require.Equal(t, []intcode.Word{3}, m.Output())
}

func TestWriteResult(t *testing.T) {
	m, err := intcode.Load("104,3,104,4,99")
	require.NoError(t, err)
	require.NoError(t, m.Run())

	var out bytes.Buffer
	writeResult(&out, config{sep: " "}, m)
	require.Equal(t, "3 4\n", out.String())

	out.Reset()
	writeResult(&out, config{sep: "\n", printMemory: true}, m)
	require.Equal(t, "3\n4\n104,3,104,4,99\n", out.String())

	m, err = intcode.Load("99")
	require.NoError(t, err)
	require.NoError(t, m.Run())
	out.Reset()
	writeResult(&out, config{sep: "\n"}, m)
	require.Empty(t, out.String())
}

func TestDebuggerComplete(t *testing.T) {
	d := newDebugger(runner.NewConsole(context.Background()))
	d.setLabels(labels{{0, "start"}, {9, "stop"}, {12, "sum"}})

	require.Equal(t, []string{"b start", "b stop"}, d.complete("b st"))
	require.Equal(t, []string{"watch sum"}, d.complete("watch su"))
	require.Len(t, d.complete("d "), 3)
	require.Nil(t, d.complete("i st"))
	require.Nil(t, d.complete("b"))
}

func TestStatusColor(t *testing.T) {
	require.NotEqual(t, statusColor(runner.BreakState), statusColor(runner.FaultState))
	require.Equal(t, statusColor(runner.ClearState), statusColor(runner.DebugState))
}
