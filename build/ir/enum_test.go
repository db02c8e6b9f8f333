package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sx-org/sx/build/ir"
)

func newEnum(t *testing.T, values ...string) *ir.Enum {
	t.Helper()
	e := ir.NewEnum("dim_kind", "")
	for _, v := range values {
		if err := e.AddValue(v, ""); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestEnumValueSets(t *testing.T) {
	e := newEnum(t, "BLOCK", "THREAD", "VECTOR", "LOOP")
	if err := e.AddAlias("PARALLEL", "BLOCK", "THREAD", "VECTOR"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		names []string
		want  []string
	}{
		{names: []string{"BLOCK"}, want: []string{"BLOCK"}},
		{names: []string{"PARALLEL"}, want: []string{"BLOCK", "THREAD", "VECTOR"}},
		{names: []string{"PARALLEL", "LOOP"}, want: []string{"BLOCK", "THREAD", "VECTOR", "LOOP"}},
		{names: nil, want: nil},
	}
	for ti, test := range tests {
		vs, err := e.ValueSet(test.names...)
		if err != nil {
			t.Errorf("test %d: %v", ti, err)
			continue
		}
		if diff := cmp.Diff(test.want, e.Names(vs)); diff != "" {
			t.Errorf("test %d: wrong value set (-want +got):\n%s", ti, diff)
		}
	}

	if _, err := e.ValueSet("NOPE"); err == nil {
		t.Error("an undefined value resolved")
	}
}

func TestEnumLattice(t *testing.T) {
	e := newEnum(t, "A", "B", "C")
	ab, _ := e.ValueSet("A", "B")
	bc, _ := e.ValueSet("B", "C")
	b, _ := e.ValueSet("B")

	if got := ab.Intersect(bc); !got.Equal(b) {
		t.Errorf("intersection is %v", e.Names(got))
	}
	if got := ab.Union(bc); !got.Equal(e.All()) {
		t.Errorf("union is %v", e.Names(got))
	}
	if got := ab.Minus(bc); len(e.Names(got)) != 1 || e.Names(got)[0] != "A" {
		t.Errorf("difference is %v", e.Names(got))
	}
	if !b.SubsetOf(ab) || ab.SubsetOf(b) {
		t.Error("inclusion is wrong")
	}
	if !b.IsConstrained() || ab.IsConstrained() {
		t.Error("cardinality-one detection is wrong")
	}
	if !e.Empty().IsEmpty() || ab.IsEmpty() {
		t.Error("emptiness detection is wrong")
	}
	if i, _ := e.ValueIndex("A"); !ab.Contains(i) {
		t.Error("membership test is wrong")
	}
	if i, _ := e.ValueIndex("C"); ab.Contains(i) {
		t.Error("membership test is wrong")
	}
}

func TestEnumInverse(t *testing.T) {
	e := newEnum(t, "BEFORE", "AFTER", "MERGED")
	if err := e.SetInverse([][2]string{{"BEFORE", "AFTER"}}); err != nil {
		t.Fatal(err)
	}
	if !e.IsAntiSymmetric() {
		t.Fatal("involution not recorded")
	}

	tests := []struct {
		in, want []string
	}{
		{in: []string{"BEFORE"}, want: []string{"AFTER"}},
		{in: []string{"AFTER"}, want: []string{"BEFORE"}},
		{in: []string{"MERGED"}, want: []string{"MERGED"}},
		{in: []string{"BEFORE", "MERGED"}, want: []string{"AFTER", "MERGED"}},
	}
	for ti, test := range tests {
		in, _ := e.ValueSet(test.in...)
		want, _ := e.ValueSet(test.want...)
		if got := e.Inverse(in); !got.Equal(want) {
			t.Errorf("test %d: inverse of %v is %v", ti, test.in, e.Names(got))
		}
		// An involution is its own inverse.
		if got := e.Inverse(e.Inverse(in)); !got.Equal(in) {
			t.Errorf("test %d: involution does not round-trip", ti)
		}
	}
}

func TestEnumLimits(t *testing.T) {
	e := ir.NewEnum("big", "")
	for i := 0; i < ir.MaxEnumValues; i++ {
		if err := e.AddValue(string(rune('a'+i%26))+string(rune('0'+i/26)), ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.AddValue("overflow", ""); err == nil {
		t.Error("enum accepted more values than a mask holds")
	}
	if got := e.All().Count(); got != ir.MaxEnumValues {
		t.Errorf("full mask holds %d values", got)
	}
}
