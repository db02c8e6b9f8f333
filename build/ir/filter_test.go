package ir_test

import (
	"testing"

	"github.com/sx-org/sx/build/ir"
)

func TestCmpOpCertainlyTrue(t *testing.T) {
	tests := []struct {
		op     ir.CmpOp
		lo, hi int64
		k      int64
		want   bool
	}{
		{op: ir.CmpLeq, lo: 0, hi: 3, k: 3, want: true},
		{op: ir.CmpLeq, lo: 0, hi: 4, k: 3, want: false},
		{op: ir.CmpLt, lo: 0, hi: 2, k: 3, want: true},
		{op: ir.CmpLt, lo: 0, hi: 3, k: 3, want: false},
		{op: ir.CmpGeq, lo: 3, hi: 9, k: 3, want: true},
		{op: ir.CmpGeq, lo: 2, hi: 9, k: 3, want: false},
		{op: ir.CmpGt, lo: 4, hi: 9, k: 3, want: true},
		{op: ir.CmpEq, lo: 3, hi: 3, k: 3, want: true},
		{op: ir.CmpEq, lo: 3, hi: 4, k: 3, want: false},
		{op: ir.CmpNeq, lo: 4, hi: 9, k: 3, want: true},
		{op: ir.CmpNeq, lo: 3, hi: 4, k: 3, want: false},
	}
	for ti, test := range tests {
		got := test.op.CertainlyTrue(test.lo, test.hi, test.k)
		if got != test.want {
			t.Errorf("test %d: [%d, %d] %s %d: got %v but want %v",
				ti, test.lo, test.hi, test.op, test.k, got, test.want)
		}
	}
}

func TestCmpOpNegate(t *testing.T) {
	ops := []ir.CmpOp{ir.CmpEq, ir.CmpNeq, ir.CmpLt, ir.CmpGt, ir.CmpLeq, ir.CmpGeq}
	for _, op := range ops {
		if got := op.Negate().Negate(); got != op {
			t.Errorf("negation of %s does not round-trip: %s", op, got)
		}
		// A comparison and its negation cannot both be certain on a
		// non-empty interval.
		if op.CertainlyTrue(2, 5, 3) && op.Negate().CertainlyTrue(2, 5, 3) {
			t.Errorf("%s and %s both certain", op, op.Negate())
		}
	}
}

func TestCounterKind(t *testing.T) {
	if got := ir.CounterAdd.Apply(2, 3); got != 5 {
		t.Errorf("2+3=%d", got)
	}
	if got := ir.CounterMul.Apply(2, 3); got != 6 {
		t.Errorf("2*3=%d", got)
	}
	if got := ir.CounterAdd.Identity(); got != 0 {
		t.Errorf("sum identity is %d", got)
	}
	if got := ir.CounterMul.Identity(); got != 1 {
		t.Errorf("product identity is %d", got)
	}
	// Saturation instead of overflow.
	if got := ir.CounterAdd.Apply(ir.CounterMax, ir.CounterMax); got != ir.CounterMax {
		t.Errorf("saturating sum is %d", got)
	}
	if got := ir.CounterMul.Apply(ir.CounterMax/2, 4); got != ir.CounterMax {
		t.Errorf("saturating product is %d", got)
	}
}

func TestCodeHashSharing(t *testing.T) {
	a := ir.NewCode("size($d)", ir.Arg(0))
	b := ir.NewCode("size($d)", ir.Arg(0))
	c := ir.NewCode("size($e)", ir.Arg(0))
	if a.Hash() != b.Hash() {
		t.Error("equal snippets have different hashes")
	}
	if a.Hash() == c.Hash() {
		t.Error("different snippets share a hash")
	}
	if ir.NewCode("").IsZero() != false {
		// NewCode always hashes; only the zero value is absent.
		t.Error("an empty snippet is the zero snippet")
	}
	var zero ir.Code
	if !zero.IsZero() {
		t.Error("the zero snippet is not zero")
	}
}
