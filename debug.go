package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/nf/nic/intcode"
	"github.com/nf/nic/runner"
)

type debugger struct {
	run     *runner.Runner
	console *runner.Console
	log     *zap.Logger

	app    *tview.Application
	status *tview.TextView // pointer, instruction and output
	cells  *tview.TextView // break, debug and watched addresses
	trace  *tview.TextView // log records
	prompt *tview.InputField

	mu       sync.Mutex
	dbg, brk *label
	labels   labels
	watches  []label
	ops      []intcode.Op
}

func (d *debugger) getLabels() labels {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.labels
}

func (d *debugger) setLabels(ls labels) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = ls
}

func (d *debugger) setOps(ops []intcode.Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = ops
}

func newDebugger(console *runner.Console) *debugger {
	d := &debugger{
		console: console,
		log:     zap.NewNop(),
		app:     tview.NewApplication(),
		status:  tview.NewTextView().SetWrap(false),
		cells:   tview.NewTextView().SetWrap(false),
		trace:   tview.NewTextView().SetMaxLines(1000).ScrollToEnd(),
		prompt:  tview.NewInputField().SetLabel("> "),
	}
	for _, p := range []struct {
		v     *tview.TextView
		title string
	}{
		{d.status, "machine"},
		{d.cells, "cells"},
		{d.trace, "log"},
	} {
		p.v.SetBorder(true).SetTitle(" " + p.title + " ").SetTitleAlign(tview.AlignLeft)
	}
	d.trace.SetChangedFunc(func() { d.app.Draw() })
	d.cells.SetTextColor(tcell.ColorLightCyan)

	grid := tview.NewGrid().
		SetRows(5, 0, 1).
		SetColumns(28, 0).
		AddItem(d.status, 0, 0, 1, 2, 0, 0, false).
		AddItem(d.cells, 1, 0, 1, 1, 0, 0, false).
		AddItem(d.trace, 1, 1, 1, 1, 0, 0, false).
		AddItem(d.prompt, 2, 0, 1, 2, 0, 0, true)
	d.app.SetRoot(grid, true)

	console.Waiting = func() { d.log.Info("waiting for input (i <n>)") }

	d.prompt.SetAutocompleteFunc(d.complete)
	d.prompt.SetAutocompletedFunc(func(t string, _, src int) bool {
		if src == tview.AutocompletedNavigate {
			return false
		}
		d.prompt.SetText(t)
		return true
	})
	d.prompt.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || d.prompt.GetText() == "" {
			return
		}
		cmd := d.prompt.GetText()
		d.prompt.SetText("")
		d.command(cmd)
	})
	return d
}

// complete offers label names for commands that take an address.
func (d *debugger) complete(t string) (entries []string) {
	cmd, arg, ok := strings.Cut(t, " ")
	if !ok {
		return nil
	}
	switch cmd {
	case "b", "break", "d", "debug", "w", "watch":
	default:
		return nil
	}
	for _, l := range d.getLabels().withPrefix(arg) {
		entries = append(entries, cmd+" "+l.name)
	}
	return entries
}

func (d *debugger) command(cmd string) {
	if cmd == "exit" {
		d.app.Stop()
		return
	}
	if cmd, arg, ok := strings.Cut(cmd, " "); ok {
		switch cmd {
		case "i", "input":
			d.console.Send(arg)
			d.log.Info("input", zap.String("line", arg))
			return
		case "b", "break", "d", "debug":
			l, ok := d.getLabels().resolve(arg)
			if !ok {
				d.log.Warn("invalid address", zap.String("addr", arg))
				return
			}
			d.run.Debug(cmd, l.addr)
			d.mu.Lock()
			if cmd[0] == 'b' {
				d.brk = &l
			} else {
				d.dbg = &l
			}
			d.mu.Unlock()
			d.log.Info("set "+cmd, zap.Stringer("addr", l))
			return
		case "w", "watch":
			l, ok := d.getLabels().resolve(arg)
			if !ok {
				d.log.Warn("invalid address", zap.String("addr", arg))
				return
			}
			d.mu.Lock()
			d.watches = append(d.watches, l)
			d.mu.Unlock()
			d.log.Info("watching", zap.Stringer("addr", l))
			return
		}
	}
	switch cmd {
	case "b", "break", "d", "debug":
		d.run.Debug(cmd, -1)
		d.mu.Lock()
		if cmd[0] == 'b' {
			d.brk = nil
		} else {
			d.dbg = nil
		}
		d.mu.Unlock()
		d.log.Info("cleared " + cmd)
	case "s", "step", "c", "cont", "p", "pause":
		d.run.Debug(cmd, 0)
	case "ops":
		d.mu.Lock()
		ops := d.ops
		d.mu.Unlock()
		d.log.Info("ops", zap.Stringers("ops", ops))
	default:
		d.log.Warn("unknown command", zap.String("cmd", cmd))
	}
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) StateFunc(s intcode.Snapshot, k runner.StateKind) {
	var (
		watch = d.watchContent(s)
		state string
	)
	if k != runner.ClearState && k != runner.QuietState {
		state = stateMsg(d.getLabels(), s, k)
	}
	d.app.QueueUpdateDraw(func() {
		if k != runner.QuietState {
			d.status.SetTextColor(statusColor(k))
			d.status.SetText(state)
		}
		d.cells.SetText(watch)
	})
}

func statusColor(k runner.StateKind) tcell.Color {
	switch k {
	case runner.BreakState:
		return tcell.ColorYellow
	case runner.PauseState:
		return tcell.ColorLightSkyBlue
	case runner.HaltState:
		return tcell.ColorGreen
	case runner.FaultState:
		return tcell.ColorRed
	}
	return tcell.ColorWhite
}

func stateMsg(ls labels, s intcode.Snapshot, k runner.StateKind) string {
	var (
		mem     = intcode.NewMemory(s.Cells)
		ins, _  = mem.Disasm(intcode.Word(s.PC))
		pcLabel string
	)
	if l := ls.forAddr(s.PC); len(l) > 0 {
		pcLabel = l[0].name + ": "
	}
	kind := "       "
	switch k {
	case runner.BreakState:
		kind = "[break]"
	case runner.DebugState:
		kind = "[debug]"
	case runner.PauseState:
		kind = "[pause]"
	case runner.HaltState:
		kind = "[halt] "
	case runner.FaultState:
		kind = "[FAULT]"
	}
	msg := fmt.Sprintf("%6d %s %s%s\nsteps: %d\nout: %s\n",
		s.PC, kind, pcLabel, ins, s.Steps, formatWords(s.Output, ","))
	if s.Err != nil {
		msg = fmt.Sprintf("%6d %s %v\nsteps: %d\nout: %s\n",
			s.PC, kind, s.Err, s.Steps, formatWords(s.Output, ","))
	}
	return msg
}

func (d *debugger) watchContent(s intcode.Snapshot) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if l := d.brk; l != nil {
		fmt.Fprintf(&b, "%s [%d] brk!\n", l.name, l.addr)
	}
	if l := d.dbg; l != nil {
		fmt.Fprintf(&b, "%s [%d] dbg?\n", l.name, l.addr)
	}
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%d] ", w.name, w.addr)
		if w.addr < len(s.Cells) {
			fmt.Fprintf(&b, "%d", s.Cells[w.addr])
		} else {
			b.WriteString("--")
		}
	}
	return b.String()
}
