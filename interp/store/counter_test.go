package store_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/domain"
	"github.com/sx-org/sx/interp/store"
)

func rangeOf(lo, hi int64) domain.Range {
	return domain.Range{Lo: lo, Hi: hi}
}

func blockCounterItems() []ast.Item {
	counter := &ast.CounterDef{
		DefinePos: 1,
		Name:      id("n_blocks"),
		Half:      true,
		Body: &ast.CounterBody{
			Kind:     ast.CounterAdd,
			IterVars: []*ast.VarDef{vdef("d", "D")},
			Conditions: []ast.Condition{
				isCond(inst("dim_kind", "d"), true, "BLOCK"),
			},
			Value: &ast.CounterValCode{Code: code("1")},
		},
	}
	bound := require(nil, []ast.Condition{
		&ast.ConditionCmp{
			Lhs: inst("n_blocks"),
			Op:  ast.CmpLeq,
			Rhs: code("3"),
		},
	})
	return []ast.Item{
		setDef("D"),
		enumDef("dim_kind", []*ast.VarDef{vdef("d", "D")}, "BLOCK", "THREAD", "LOOP"),
		counter,
		bound,
	}
}

func constAmount(n int64) catalogue.Amount {
	return func(catalogue.Instance, []catalogue.ObjectID) int64 { return n }
}

// TestCounterUpperBound checks the counter seed scenario: under
// `n_blocks <= 3`, deciding three of four dimensions to BLOCK removes
// BLOCK from the fourth.
func TestCounterUpperBound(t *testing.T) {
	desc := compile(t, blockCounterItems()...)
	fake := newFakeIR().add("D", "d0", "d1", "d2", "d3")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1)).
		BindAmount("3", constAmount(3))
	s := open(t, desc, cat, fake)

	block := values(t, desc, "dim_kind", "BLOCK")
	for _, d := range []catalogue.ObjectID{"d0", "d1", "d2"} {
		if err := s.Apply(store.Action{
			Choice: "dim_kind",
			Args:   []catalogue.ObjectID{d},
			Values: block,
		}); err != nil {
			t.Fatalf("apply dim_kind(%s)=BLOCK: %v", d, err)
		}
	}
	wantDomain(t, s, "dim_kind", []catalogue.ObjectID{"d3"},
		values(t, desc, "dim_kind", "THREAD", "LOOP"))

	dom, err := s.CounterDomain("n_blocks")
	if err != nil {
		t.Fatal(err)
	}
	if dom.Lo != 3 {
		t.Errorf("counter lower bound is %d but want 3", dom.Lo)
	}
	if dom.Hi != ir.CounterMax {
		t.Errorf("half counter exposes an upper bound: %d", dom.Hi)
	}
}

// TestCounterContradiction checks that deciding past the bound fails.
func TestCounterContradiction(t *testing.T) {
	desc := compile(t, blockCounterItems()...)
	fake := newFakeIR().add("D", "d0", "d1", "d2", "d3")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1)).
		BindAmount("3", constAmount(3))
	s := open(t, desc, cat, fake)

	// Force the fourth dimension to BLOCK first, then the rest: the
	// last apply must fail rather than silently exceed the bound.
	block := values(t, desc, "dim_kind", "BLOCK")
	var got error
	for _, d := range []catalogue.ObjectID{"d3", "d0", "d1", "d2"} {
		if got = s.Apply(store.Action{
			Choice: "dim_kind",
			Args:   []catalogue.ObjectID{d},
			Values: block,
		}); got != nil {
			break
		}
	}
	if !errors.Is(got, store.ErrContradiction) {
		t.Fatalf("got %v but want a contradiction", got)
	}
}

// TestCounterLimitAction checks that the explorer can bound a counter
// directly through an action.
func TestCounterLimitAction(t *testing.T) {
	items := []ast.Item{
		setDef("D"),
		enumDef("dim_kind", []*ast.VarDef{vdef("d", "D")}, "BLOCK", "THREAD", "LOOP"),
		&ast.CounterDef{
			DefinePos: 1,
			Name:      id("n_blocks"),
			Half:      true,
			Body: &ast.CounterBody{
				Kind:     ast.CounterAdd,
				IterVars: []*ast.VarDef{vdef("d", "D")},
				Conditions: []ast.Condition{
					isCond(inst("dim_kind", "d"), true, "BLOCK"),
				},
				Value: &ast.CounterValCode{Code: code("1")},
			},
		},
	}
	desc := compile(t, items...)
	fake := newFakeIR().add("D", "d0", "d1")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1))
	s := open(t, desc, cat, fake)

	block := values(t, desc, "dim_kind", "BLOCK")
	if err := s.Apply(store.Action{
		Choice: "dim_kind", Args: []catalogue.ObjectID{"d0"}, Values: block,
	}); err != nil {
		t.Fatal(err)
	}
	limit := rangeOf(1, 1)
	if err := s.Apply(store.Action{Choice: "n_blocks", Limit: &limit}); err != nil {
		t.Fatal(err)
	}
	// One BLOCK is already guaranteed: the other dimension cannot be one.
	wantDomain(t, s, "dim_kind", []catalogue.ObjectID{"d1"},
		values(t, desc, "dim_kind", "THREAD", "LOOP"))
}

// TestSynthesisedIncrement checks a counter whose `when` clause is not
// a single membership test: the compiler synthesises a boolean
// increment choice tied to the conditions.
func TestSynthesisedIncrement(t *testing.T) {
	items := []ast.Item{
		setDef("D"),
		enumDef("dim_kind", []*ast.VarDef{vdef("d", "D")}, "BLOCK", "THREAD", "LOOP"),
		enumDef("active", []*ast.VarDef{vdef("d", "D")}, "ON", "OFF"),
		&ast.CounterDef{
			DefinePos: 1,
			Name:      id("n_active_blocks"),
			Half:      true,
			Body: &ast.CounterBody{
				Kind:     ast.CounterAdd,
				IterVars: []*ast.VarDef{vdef("d", "D")},
				Conditions: []ast.Condition{
					isCond(inst("dim_kind", "d"), true, "BLOCK"),
					isCond(inst("active", "d"), true, "ON"),
				},
				Value: &ast.CounterValCode{Code: code("1")},
			},
		},
	}
	desc := compile(t, items...)
	if _, ok := desc.Choice("increment_n_active_blocks"); !ok {
		t.Fatal("no increment choice synthesised")
	}
	fake := newFakeIR().add("D", "d0")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1))
	s := open(t, desc, cat, fake)

	// Decide both conditions: the increment must follow, and with it
	// the counter's lower bound.
	for choice, value := range map[string]string{"dim_kind": "BLOCK", "active": "ON"} {
		if err := s.Apply(store.Action{
			Choice: choice,
			Args:   []catalogue.ObjectID{"d0"},
			Values: values(t, desc, choice, value),
		}); err != nil {
			t.Fatal(err)
		}
	}
	wantDomain(t, s, "increment_n_active_blocks", []catalogue.ObjectID{"d0"},
		values(t, desc, "Bool", "TRUE"))
	dom, err := s.CounterDomain("n_active_blocks")
	if err != nil {
		t.Fatal(err)
	}
	if dom.Lo != 1 {
		t.Errorf("counter lower bound is %d but want 1", dom.Lo)
	}
}
