// Package runner drives an intcode.Machine, either straight through to
// completion or, in developer mode, under the control of a debugger.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nf/nic/intcode"
)

// StateKind describes why a StateFunc is being called.
type StateKind int

const (
	ClearState StateKind = iota // a new machine was swapped in
	QuietState                  // periodic update while running
	DebugState                  // the debug address was reached
	BreakState                  // the break address was reached
	PauseState                  // execution was paused
	HaltState                   // the machine halted
	FaultState                  // the machine faulted
)

func (k StateKind) String() string {
	switch k {
	case ClearState:
		return "clear"
	case QuietState:
		return "quiet"
	case DebugState:
		return "debug"
	case BreakState:
		return "break"
	case PauseState:
		return "pause"
	case HaltState:
		return "halt"
	case FaultState:
		return "fault"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// StateFunc receives a copy of the machine state.
// It is called from the goroutine executing Run.
type StateFunc func(intcode.Snapshot, StateKind)

// ErrStepLimit is returned by Run when a program executes more than
// Config.MaxSteps instructions.
var ErrStepLimit = errors.New("step limit exceeded")

// quietInterval is the number of steps between QuietState reports.
const quietInterval = 1024

type Config struct {
	// Dev keeps Run going after the machine halts or faults, so that it
	// can be replaced with Swap.
	Dev bool

	// MaxSteps, if non-zero, bounds the number of instructions executed.
	// In dev mode reaching the bound pauses the machine instead.
	MaxSteps uint64

	State StateFunc
	Log   *zap.Logger

	// Interrupt, if non-nil, is called by Swap to release a machine that
	// is blocked waiting for input, such as Console.Interrupt.
	Interrupt func()
}

type Runner struct {
	cfg Config
	log *zap.Logger

	swap     chan *intcode.Machine
	swapDone chan bool
	debug    chan debugCmd
	done     chan struct{}
}

type debugCmd struct {
	cmd  string
	addr int
}

func NewRunner(cfg Config) *Runner {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		log:      log,
		swap:     make(chan *intcode.Machine),
		swapDone: make(chan bool),
		debug:    make(chan debugCmd, 16),
		done:     make(chan struct{}),
	}
}

// swapRetry is how often Swap repeats Config.Interrupt while the
// running machine has not given way.
const swapRetry = 10 * time.Millisecond

// Swap replaces the machine being run by Run. It may only be used in dev
// mode.
func (r *Runner) Swap(m *intcode.Machine) {
	if !r.cfg.Dev {
		panic("Swap called while not running in dev mode")
	}
	var retry <-chan time.Time
	if r.cfg.Interrupt != nil {
		t := time.NewTicker(swapRetry)
		defer t.Stop()
		retry = t.C
		r.cfg.Interrupt()
	}
	for {
		select {
		case r.swap <- m:
			<-r.swapDone
			return
		case <-r.done:
			return
		case <-retry:
			r.cfg.Interrupt()
		}
	}
}

// Debug sends a command to the running machine. The commands are
//
//	b, break  pause when the pointer reaches addr
//	d, debug  report when the pointer reaches addr
//	s, step   execute one instruction, then pause
//	c, cont   resume execution
//	p, pause  pause execution
//	exit      stop Run
//
// An addr of -1 clears the break or debug address.
func (r *Runner) Debug(cmd string, addr int) {
	select {
	case r.debug <- debugCmd{cmd, addr}:
	case <-r.done:
	}
}

// Run executes m until it halts or faults, returning the FaultError if it
// faulted. In dev mode Run continues until ctx is done or the exit
// command is received, and then returns nil.
func (r *Runner) Run(ctx context.Context, m *intcode.Machine) error {
	defer close(r.done)

	var (
		brk, dbg = -1, -1
		paused   bool
		step     bool // pause again after one instruction
		skip     bool // don't break at the current pointer
		limit    = r.cfg.MaxSteps
		trace    backlog
	)
	report := func(k StateKind) {
		if r.cfg.State != nil {
			r.cfg.State(m.Snapshot(), k)
		}
	}
	handle := func(c debugCmd) (exit bool) {
		switch c.cmd {
		case "b", "break":
			brk = c.addr
		case "d", "debug":
			dbg = c.addr
		case "s", "step":
			if paused {
				paused, step, skip = false, true, true
			} else {
				paused = true
				report(PauseState)
			}
		case "c", "cont":
			if paused {
				paused, skip = false, true
				report(ClearState)
			}
		case "p", "pause":
			if !paused {
				paused = true
				report(PauseState)
			}
		case "exit":
			return true
		default:
			r.log.Warn("unknown debug command", zap.String("cmd", c.cmd))
		}
		return false
	}

	for {
		if m.State().Terminal() && !r.cfg.Dev {
			return m.Err()
		}
		if paused || m.State().Terminal() {
			select {
			case <-ctx.Done():
				return r.stopped(ctx)
			case c := <-r.debug:
				if handle(c) {
					return nil
				}
			case nm := <-r.swap:
				m, paused, step, skip, limit = nm, false, false, false, r.cfg.MaxSteps
				trace.reset()
				r.log.Info("swap")
				report(ClearState)
				r.swapDone <- true
			}
			continue
		}

		select {
		case <-ctx.Done():
			return r.stopped(ctx)
		case c := <-r.debug:
			if handle(c) {
				return nil
			}
			continue
		case nm := <-r.swap:
			m, step, skip, limit = nm, false, false, r.cfg.MaxSteps
			trace.reset()
			r.log.Info("swap")
			report(ClearState)
			r.swapDone <- true
			continue
		default:
		}

		pc := m.PC()
		if pc == brk && !skip {
			paused = true
			r.log.Debug("break", zap.Int("pc", pc))
			report(BreakState)
			continue
		}
		skip = false
		if pc == dbg {
			report(DebugState)
		}
		if limit > 0 && m.Steps() >= limit {
			if op, err := m.Mem.Opcode(intcode.Word(pc)); err != nil || op != intcode.Halt {
				r.log.Info("step limit", zap.Uint64("steps", m.Steps()))
				if !r.cfg.Dev {
					return fmt.Errorf("%w after %d steps at %d", ErrStepLimit, m.Steps(), pc)
				}
				limit += r.cfg.MaxSteps
				paused = true
				report(PauseState)
				continue
			}
		}

		trace.add(pc)
		m.Step()

		switch m.State() {
		case intcode.Halted:
			report(HaltState)
		case intcode.Faulted:
			r.log.Info("fault", zap.Error(m.Err()), zap.Ints("trace", trace.entries()))
			report(FaultState)
		default:
			if step {
				step, paused = false, true
				report(PauseState)
			} else if m.Steps()%quietInterval == 0 {
				report(QuietState)
			}
		}
	}
}

func (r *Runner) stopped(ctx context.Context) error {
	if r.cfg.Dev {
		return nil
	}
	return ctx.Err()
}
