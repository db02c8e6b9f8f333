package store_test

import (
	"testing"

	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/store"
)

// TestFragileValues checks the escape hatch for values filters must
// not remove: a filter narrowing an instance keeps its fragile values,
// while an explicit action still removes them. The description is
// built directly against the IR, the way a host embedding the core
// would.
func TestFragileValues(t *testing.T) {
	desc := ir.NewDesc()
	enum := ir.NewEnum("state", "")
	for _, v := range []string{"A", "B", "C"} {
		if err := enum.AddValue(v, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := desc.AddEnum(enum); err != nil {
		t.Fatal(err)
	}
	set := ir.SetBuilder{Name: "D", Iterator: ir.NewCode("iter_D")}.Build()
	if err := desc.AddSet(set); err != nil {
		t.Fatal(err)
	}
	choice := ir.NewChoice("state", "", ir.PlainArgs(
		[]string{"d"}, []ir.BoundSet{{Set: set}}), ir.EnumChoice{Enum: enum})
	onlyA, err := enum.ValueSet("A")
	if err != nil {
		t.Fatal(err)
	}
	fragileB, err := enum.ValueSet("B")
	if err != nil {
		t.Fatal(err)
	}
	// An unconditional filter narrowing the choice to A.
	choice.AddFilter(&ir.Filter{Rules: []ir.Rule{{Alternatives: onlyA}}})
	choice.AddFragileValues(fragileB)
	if err := desc.AddChoice(choice); err != nil {
		t.Fatal(err)
	}

	fake := newFakeIR().add("D", "d0")
	s := open(t, desc, catalogue.New().BindSet("D", fake.binding("D")), fake)

	// The filter removed C but spared the fragile B.
	ab, err := enum.ValueSet("A", "B")
	if err != nil {
		t.Fatal(err)
	}
	wantDomain(t, s, "state", []catalogue.ObjectID{"d0"}, ab)

	// An explicit action is not a filter: it removes fragile values.
	if err := s.Apply(store.Action{
		Choice: "state",
		Args:   []catalogue.ObjectID{"d0"},
		Values: onlyA,
	}); err != nil {
		t.Fatal(err)
	}
	wantDomain(t, s, "state", []catalogue.ObjectID{"d0"}, onlyA)
}
