package intcode

import (
	"fmt"
	"strconv"
)

// Fault signifies the kind of condition that stopped a program.
// A Fault is itself an error so that it can be the target of errors.Is.
type Fault uint8

const (
	MalformedProgram Fault = iota + 1
	OutOfBounds
	UnknownOpcode
	BadParameterMode
	InputExhausted
	InputUnparseable
)

func (f Fault) String() string {
	if s, ok := map[Fault]string{
		MalformedProgram: "malformed program",
		OutOfBounds:      "out of bounds",
		UnknownOpcode:    "unknown opcode",
		BadParameterMode: "bad parameter mode",
		InputExhausted:   "input exhausted",
		InputUnparseable: "input unparseable",
	}[f]; ok {
		return s
	}
	return fmt.Sprintf("unknown fault (%d)", uint8(f))
}

func (f Fault) Error() string { return f.String() }

// FaultError is returned by Step and Run when execution faults.
type FaultError struct {
	Fault
	Op   Op
	Addr int
	Err  error // underlying cause, if any
}

func (e FaultError) Error() string {
	s := fmt.Sprintf("%s executing %s at %d", e.Fault, e.Op, e.Addr)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e FaultError) Unwrap() error { return e.Err }

func (e FaultError) Is(target error) bool { return target == e.Fault }

// SyntaxError reports a token of program or input text that is not a
// signed decimal integer.
type SyntaxError struct {
	Index int
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("token %d (%q): %v", e.Index, e.Token, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == MalformedProgram }

// AccessError reports a memory access outside [0, Len).
type AccessError struct {
	Addr Word
	Len  int
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("address %d outside memory of %d cells", e.Addr, e.Len)
}

func (e *AccessError) Is(target error) bool { return target == OutOfBounds }

// ModeError reports a parameter mode digit other than 0 or 1.
type ModeError struct {
	Operand int
	Digit   uint8
}

func (e *ModeError) Error() string {
	return "operand " + strconv.Itoa(e.Operand) + " has mode digit " + strconv.Itoa(int(e.Digit))
}

func (e *ModeError) Is(target error) bool { return target == BadParameterMode }
