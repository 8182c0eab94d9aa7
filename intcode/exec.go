// Package intcode provides an implementation of an Intcode computer,
// called Machine, that can be used to execute Intcode programs.
package intcode

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Machine is an Intcode computer: a Memory, an I/O Channel and a table of
// instruction handlers.
type Machine struct {
	Mem *Memory
	IO  *Channel
	Log *zap.Logger

	pc    int
	state State
	err   error
	steps uint64
	ops   map[Op]Handler
}

// Handler implements one opcode. It performs the instruction at c.PC and
// returns the address of the next instruction.
//
// Operands are numbered from 1. Passing a smaller operand number to a
// Context method is a programming error: it panics, and the panic passes
// through Step with the machine left Ready at the same instruction.
type Handler func(c *Context) int

// State is the execution state of a Machine.
type State uint8

const (
	Ready State = iota
	Running
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether no further instructions will execute.
func (s State) Terminal() bool { return s == Halted || s == Faulted }

// NewMachine returns a Machine with the baseline instruction set,
// executing mem from address 0. A nil io is replaced by an empty Channel.
func NewMachine(mem *Memory, io *Channel) *Machine {
	if io == nil {
		io = &Channel{}
	}
	m := &Machine{
		Mem: mem,
		IO:  io,
		Log: zap.NewNop(),
		ops: make(map[Op]Handler),
	}
	registerBaseline(m)
	return m
}

// Load parses program and the optional pre-queued input and returns a
// Machine ready to run them. Multiple input strings are queued in order.
func Load(program string, input ...string) (*Machine, error) {
	mem, err := ParseProgram(program)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	c := &Channel{}
	for _, s := range input {
		q, err := ParseInput(s)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		c.Queue = append(c.Queue, q...)
	}
	return NewMachine(mem, c), nil
}

// Register adds a handler for op. The first registration for an opcode
// wins; later ones, registrations for Halt and registrations made after
// the machine has started are ignored. It reports whether h was added.
func (m *Machine) Register(op Op, h Handler) bool {
	if op == Halt || m.state != Ready || m.steps > 0 {
		return false
	}
	if _, ok := m.ops[op]; ok {
		return false
	}
	m.ops[op] = h
	return true
}

// Ops returns the registered opcodes in ascending order.
func (m *Machine) Ops() []Op {
	ops := maps.Keys(m.ops)
	slices.Sort(ops)
	return ops
}

func (m *Machine) PC() int         { return m.pc }
func (m *Machine) State() State    { return m.state }
func (m *Machine) Err() error      { return m.err }
func (m *Machine) Steps() uint64   { return m.steps }
func (m *Machine) Memory() *Memory { return m.Mem }

// Output returns the output trace.
func (m *Machine) Output() []Word { return m.IO.Output }

// Run executes instructions until the machine halts or faults.
// It returns nil on halt and the FaultError otherwise.
func (m *Machine) Run() error {
	for !m.state.Terminal() {
		m.Step()
	}
	return m.err
}

// Step executes the instruction at the current pointer. On a terminal
// machine it does nothing and returns the terminal result again.
func (m *Machine) Step() (err error) {
	if m.state.Terminal() {
		return m.err
	}
	var (
		pc = m.pc
		op Op
	)
	defer func() {
		if e := recover(); e != nil {
			f, ok := e.(fault)
			if !ok {
				m.state = Ready
				panic(e)
			}
			err = m.fail(FaultError{Fault: f.code, Op: op, Addr: pc, Err: f.err})
		}
	}()

	in, derr := m.Mem.Decode(Word(pc))
	if derr != nil {
		panic(fault{OutOfBounds, derr})
	}
	op = in.Op
	if op == Halt {
		m.state = Halted
		m.Log.Info("halt", zap.Int("pc", pc), zap.Uint64("steps", m.steps))
		return nil
	}
	h, ok := m.ops[op]
	if !ok {
		panic(fault{UnknownOpcode, nil})
	}
	if ce := m.Log.Check(zap.DebugLevel, "exec"); ce != nil {
		text, _ := m.Mem.Disasm(Word(pc))
		ce.Write(zap.Int("pc", pc), zap.Stringer("op", op), zap.String("ins", text))
	}

	m.state = Running
	c := Context{PC: pc, m: m, in: in}
	next := h(&c)
	m.pc = next
	m.steps++
	m.state = Ready
	return nil
}

func (m *Machine) fail(e FaultError) error {
	m.state = Faulted
	m.err = e
	m.Log.Info("fault", zap.Int("pc", e.Addr), zap.Error(e))
	return e
}

// Snapshot is a copy of the observable state of a Machine.
type Snapshot struct {
	Cells  []Word
	PC     int
	Output []Word
	State  State
	Steps  uint64
	Err    error
}

// Snapshot returns a copy of the machine state that remains valid after
// execution continues.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Cells:  m.Mem.Cells(),
		PC:     m.pc,
		Output: append([]Word(nil), m.IO.Output...),
		State:  m.state,
		Steps:  m.steps,
		Err:    m.err,
	}
}

// fault is panicked by Context methods to abort the current instruction.
type fault struct {
	code Fault
	err  error
}

// Context gives a Handler access to the operands of its instruction and to
// the machine's I/O. Methods that fail abort the instruction; Step reports
// the failure as a FaultError.
type Context struct {
	PC int

	m  *Machine
	in Instruction
}

// Op returns the opcode being executed.
func (c *Context) Op() Op { return c.in.Op }

// Param returns the value of operand k, dereferenced by its mode.
func (c *Context) Param(k int) Word {
	mode, err := c.in.Mode(k)
	if err != nil {
		panic(fault{BadParameterMode, err})
	}
	v := c.Raw(k)
	if mode == Immediate {
		return v
	}
	return c.read(v)
}

// Raw returns the literal operand k.
func (c *Context) Raw(k int) Word {
	return c.read(Word(c.PC) + Word(k))
}

// Store writes v to the address held in operand k.
func (c *Context) Store(k int, v Word) {
	addr := c.Raw(k)
	if err := c.m.Mem.Write(addr, v); err != nil {
		panic(fault{OutOfBounds, err})
	}
}

// Input reads the next input value.
func (c *Context) Input() Word {
	v, err := c.m.IO.Read()
	switch {
	case err == nil:
		return v
	case errors.Is(err, InputUnparseable):
		panic(fault{InputUnparseable, err})
	case err == InputExhausted:
		panic(fault{InputExhausted, nil})
	default:
		panic(fault{InputExhausted, err})
	}
}

// Output appends v to the output trace.
func (c *Context) Output(v Word) {
	c.m.IO.Write(v)
	c.m.Log.Debug("output", zap.Int64("value", v))
}

// Next returns the address after an instruction with n operands.
func (c *Context) Next(n int) int { return c.PC + 1 + n }

// Jump returns addr as an instruction pointer. An address outside memory
// faults when it is fetched.
func (c *Context) Jump(addr Word) int {
	if Word(int(addr)) != addr {
		return -1
	}
	return int(addr)
}

func (c *Context) read(addr Word) Word {
	v, err := c.m.Mem.Read(addr)
	if err != nil {
		panic(fault{OutOfBounds, err})
	}
	return v
}
