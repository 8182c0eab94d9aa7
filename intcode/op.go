package intcode

import "fmt"

// Op represents an Intcode opcode: the low two decimal digits of an
// instruction word.
type Op uint8

const (
	Add    Op = 1
	Mul    Op = 2
	In     Op = 3
	Out    Op = 4
	JumpNZ Op = 5
	JumpZ  Op = 6
	Less   Op = 7
	Equal  Op = 8
	Halt   Op = 99
)

var opNames = map[Op]string{
	Add:    "add",
	Mul:    "mul",
	In:     "in",
	Out:    "out",
	JumpNZ: "jnz",
	JumpZ:  "jz",
	Less:   "lt",
	Equal:  "eq",
	Halt:   "halt",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op%02d", uint8(op))
}

// Operands reports the number of operand cells that follow the baseline
// opcode op, and whether op is a baseline opcode at all.
func (op Op) Operands() (int, bool) {
	switch op {
	case Add, Mul, Less, Equal:
		return 3, true
	case In, Out:
		return 1, true
	case JumpNZ, JumpZ:
		return 2, true
	case Halt:
		return 0, true
	}
	return 0, false
}

// Writes reports whether operand k of op is a write target.
func (op Op) Writes(k int) bool {
	switch op {
	case Add, Mul, Less, Equal:
		return k == 3
	case In:
		return k == 1
	}
	return false
}

// Mode is a parameter mode, selecting how an operand is dereferenced.
type Mode uint8

const (
	Position  Mode = 0
	Immediate Mode = 1
)

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Op Op

	// Modes holds the mode digits of the word, operand 1 first, up to the
	// most significant non-zero digit. The digits are not validated.
	Modes []Mode

	// neg is set for negative words, whose digit stream continues with
	// nines rather than zeros.
	neg bool
}

// Decode splits an instruction word into its opcode and mode digits.
// Negative words are decoded with floored arithmetic, so the opcode is
// always in [0, 100).
func Decode(w Word) Instruction {
	in := Instruction{Op: Op(mod(w, 100))}
	for d := div(w, 100); d != 0; d = div(d, 10) {
		if d == -1 {
			in.neg = true
			break
		}
		in.Modes = append(in.Modes, Mode(mod(d, 10)))
	}
	return in
}

// Mode returns the parameter mode of operand k (counting from 1).
func (in Instruction) Mode(k int) (Mode, error) {
	if k < 1 {
		panic(fmt.Sprintf("invalid operand %d", k))
	}
	m := Position
	switch {
	case k <= len(in.Modes):
		m = in.Modes[k-1]
	case in.neg:
		m = 9
	}
	if m != Position && m != Immediate {
		return m, &ModeError{Operand: k, Digit: uint8(m)}
	}
	return m, nil
}

// div and mod are floored division and remainder for b > 0.
func div(a, b Word) Word {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func mod(a, b Word) Word {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
