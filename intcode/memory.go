package intcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Word is the value held by a memory cell. Operands, addresses and
// input/output values are all Words.
type Word = int64

// Memory is the fixed-size, position-addressed store of an Intcode program.
// Code and data share the same cells.
type Memory struct {
	cells []Word
	dec   *simplelru.LRU[Word, Instruction]
}

const decodeCacheSize = 256

// NewMemory returns a Memory holding a copy of cells.
func NewMemory(cells []Word) *Memory {
	dec, err := simplelru.NewLRU[Word, Instruction](decodeCacheSize, nil)
	if err != nil {
		panic(err)
	}
	return &Memory{
		cells: append([]Word(nil), cells...),
		dec:   dec,
	}
}

// ParseProgram parses comma-separated program text into a Memory.
// Surrounding whitespace is ignored.
func ParseProgram(text string) (*Memory, error) {
	cells, err := parseWords(text)
	if err != nil {
		return nil, err
	}
	return NewMemory(cells), nil
}

// ParseInput parses pre-queued input, which has the same shape as program
// text. The empty string is an empty queue.
func ParseInput(text string) ([]Word, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return parseWords(text)
}

func parseWords(text string) ([]Word, error) {
	toks := strings.Split(strings.TrimSpace(text), ",")
	ws := make([]Word, len(toks))
	for i, t := range toks {
		w, err := parseWord(t)
		if err != nil {
			return nil, &SyntaxError{Index: i, Token: t, Err: err}
		}
		ws[i] = w
	}
	return ws, nil
}

// parseWord accepts an optional minus sign followed by decimal digits.
// strconv alone would also take a leading plus sign.
func parseWord(t string) (Word, error) {
	digits := strings.TrimPrefix(t, "-")
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(t, 10, 64)
}

// Len returns the number of cells.
func (m *Memory) Len() int { return len(m.cells) }

// Cells returns a copy of the memory contents.
func (m *Memory) Cells() []Word { return append([]Word(nil), m.cells...) }

// Read returns the cell at addr.
func (m *Memory) Read(addr Word) (Word, error) {
	if err := m.check(addr); err != nil {
		return 0, err
	}
	return m.cells[addr], nil
}

// Write stores v at addr.
func (m *Memory) Write(addr, v Word) error {
	if err := m.check(addr); err != nil {
		return err
	}
	m.cells[addr] = v
	return nil
}

func (m *Memory) check(addr Word) error {
	if addr < 0 || addr >= Word(len(m.cells)) {
		return &AccessError{Addr: addr, Len: len(m.cells)}
	}
	return nil
}

// Decode returns the decoded instruction word at addr.
func (m *Memory) Decode(addr Word) (Instruction, error) {
	w, err := m.Read(addr)
	if err != nil {
		return Instruction{}, err
	}
	if in, ok := m.dec.Get(w); ok {
		return in, nil
	}
	in := Decode(w)
	m.dec.Add(w, in)
	return in, nil
}

// Opcode returns the opcode of the instruction word at addr.
func (m *Memory) Opcode(addr Word) (Op, error) {
	in, err := m.Decode(addr)
	return in.Op, err
}

// Mode returns the parameter mode of operand k (counting from 1) of the
// instruction at addr.
func (m *Memory) Mode(addr Word, k int) (Mode, error) {
	in, err := m.Decode(addr)
	if err != nil {
		return 0, err
	}
	return in.Mode(k)
}

// Param returns the value of operand k of the instruction at addr,
// dereferenced according to its parameter mode.
func (m *Memory) Param(addr Word, k int) (Word, error) {
	mode, err := m.Mode(addr, k)
	if err != nil {
		return 0, err
	}
	v, err := m.Raw(addr, k)
	if err != nil {
		return 0, err
	}
	if mode == Immediate {
		return v, nil
	}
	return m.Read(v)
}

// Raw returns the literal operand k of the instruction at addr, ignoring
// its parameter mode. Write targets are always read this way.
func (m *Memory) Raw(addr Word, k int) (Word, error) {
	return m.Read(addr + Word(k))
}

// Disasm renders the instruction at addr and returns the address of the
// instruction that follows it. Position operands are shown in brackets.
// Unknown opcodes render as a data cell.
func (m *Memory) Disasm(addr Word) (string, Word) {
	in, err := m.Decode(addr)
	if err != nil {
		return "??", addr + 1
	}
	n, ok := in.Op.Operands()
	if !ok {
		w, _ := m.Read(addr)
		return fmt.Sprintf("data %d", w), addr + 1
	}
	var b strings.Builder
	b.WriteString(in.Op.String())
	for k := 1; k <= n; k++ {
		v, err := m.Raw(addr, k)
		if err != nil {
			b.WriteString(" ??")
			continue
		}
		if mode, _ := in.Mode(k); mode == Immediate && !in.Op.Writes(k) {
			fmt.Fprintf(&b, " %d", v)
		} else {
			fmt.Fprintf(&b, " [%d]", v)
		}
	}
	return b.String(), addr + 1 + Word(n)
}

// String returns the memory as program text.
func (m *Memory) String() string {
	var b strings.Builder
	for i, w := range m.cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(w, 10))
	}
	return b.String()
}
