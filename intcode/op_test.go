package intcode

import (
	"math"
	"reflect"
	"testing"
)

// Check that every baseline opcode has a name, and that the write
// operands are within the operand count.
func TestOpString(t *testing.T) {
	for _, o := range allOps() {
		n, ok := o.Operands()
		_, named := opNames[o]
		if ok != named {
			t.Errorf("Op(%d): baseline %v but named %v", o, ok, named)
		}
		if !ok {
			if got, want := o.String(), "op"; got[:2] != want {
				t.Errorf("Op(%d).String() returned %q", o, got)
			}
		}
		for k := 1; k <= 4; k++ {
			if o.Writes(k) && k > n {
				t.Errorf("Op(%v) writes operand %d of %d", o, k, n)
			}
		}
	}
}

func TestDecode(t *testing.T) {
	for _, w := range []Word{0, 1, 99, 1002, 11101, 123456789, -1, -1234, math.MaxInt64, math.MinInt64} {
		in := Decode(w)
		if in.Op >= 100 {
			t.Errorf("Decode(%d).Op = %d", w, in.Op)
		}
		if in.neg != (w < 0) {
			t.Errorf("Decode(%d).neg = %v", w, in.neg)
		}
		for k, m := range in.Modes {
			if m > 9 {
				t.Errorf("Decode(%d) mode digit %d is %d", w, k+1, m)
			}
		}
		// Reassemble the word from its digits. Overflow wraps both sides
		// alike.
		got := Word(in.Op)
		scale := Word(100)
		for _, m := range in.Modes {
			got += Word(m) * scale
			scale *= 10
		}
		if in.neg {
			got -= scale
		}
		if got != w {
			t.Errorf("Decode(%d) reassembles to %d", w, got)
		}
	}
}

func allOps() []Op {
	ops := make([]Op, 100)
	for i := range ops {
		ops[i] = Op(i)
	}
	return ops
}

func TestDecodeMinWord(t *testing.T) {
	in := Decode(math.MinInt64)
	if in.Op != 92 {
		t.Errorf("Op = %d, want 92", in.Op)
	}
	// -9223372036854775808 = -92233720368547759*100 + 92; the mode digits
	// are those of -92233720368547759 with floored division, low digit
	// first, ending where the quotient reaches -1.
	want := []Mode{1, 4, 2, 2, 5, 4, 1, 3, 6, 9, 7, 2, 6, 6, 7, 7, 0}
	if !reflect.DeepEqual(in.Modes, want) || !in.neg {
		t.Errorf("Modes = %v neg %v, want %v neg true", in.Modes, in.neg, want)
	}
}
