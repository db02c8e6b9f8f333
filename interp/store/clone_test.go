package store_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/store"
)

func domainsOf(t *testing.T, s *store.Store) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for key := range s.Keys() {
		if dom, err := s.EnumDomain(key.Choice, keyArgs(key)...); err == nil {
			e, ok := s.Desc().Enum(dom.Enum())
			if !ok {
				t.Fatalf("unknown enum %s", dom.Enum())
			}
			out[key.String()] = e.Format(dom)
			continue
		}
		dom, err := s.CounterDomain(key.Choice, keyArgs(key)...)
		if err != nil {
			t.Fatal(err)
		}
		out[key.String()] = dom.String()
	}
	return out
}

// TestCloneDiverges checks that a clone shares nothing mutable with
// its origin: applying to one leaves the other untouched.
func TestCloneDiverges(t *testing.T) {
	desc := compile(t, blockCounterItems()...)
	fake := newFakeIR().add("D", "d0", "d1", "d2", "d3")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1)).
		BindAmount("3", constAmount(3))
	s := open(t, desc, cat, fake)
	clone := s.Clone()

	before := domainsOf(t, clone)
	if err := s.Apply(store.Action{
		Choice: "dim_kind",
		Args:   []catalogue.ObjectID{"d0"},
		Values: values(t, desc, "dim_kind", "BLOCK"),
	}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, domainsOf(t, clone)); diff != "" {
		t.Errorf("clone changed with its origin (-before +after):\n%s", diff)
	}
}

// TestCloneReplay checks the round-trip law: applying the recorded
// actions of a store to a fresh clone of its starting point yields
// identical domains.
func TestCloneReplay(t *testing.T) {
	desc := compile(t, blockCounterItems()...)
	fake := newFakeIR().add("D", "d0", "d1", "d2", "d3")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1)).
		BindAmount("3", constAmount(3))
	s := open(t, desc, cat, fake)
	fresh := s.Clone()

	block := values(t, desc, "dim_kind", "BLOCK")
	thread := values(t, desc, "dim_kind", "THREAD")
	actions := []store.Action{
		{Choice: "dim_kind", Args: []catalogue.ObjectID{"d0"}, Values: block},
		{Choice: "dim_kind", Args: []catalogue.ObjectID{"d1"}, Values: thread},
		{Choice: "dim_kind", Args: []catalogue.ObjectID{"d2"}, Values: block},
	}
	for _, a := range actions {
		if err := s.Apply(a); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range s.Actions() {
		if err := fresh.Apply(a); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(domainsOf(t, s), domainsOf(t, fresh)); diff != "" {
		t.Errorf("replayed store differs (-origin +replayed):\n%s", diff)
	}
}

// TestCloneKeepsFiredTriggers checks that the at-most-once guarantee
// carries into clones.
func TestCloneKeepsFiredTriggers(t *testing.T) {
	desc := compile(t, growSpec()...)
	fake := newFakeIR().add("Roots", "r0")
	fired := 0
	s := open(t, desc, growCatalogue(fake, &fired), fake)

	if err := s.Apply(store.Action{
		Choice: "flag",
		Args:   []catalogue.ObjectID{"r0"},
		Values: values(t, desc, "flag", "ON"),
	}); err != nil {
		t.Fatal(err)
	}
	clone := s.Clone()
	if err := clone.Apply(store.Action{
		Choice: "k",
		Args:   []catalogue.ObjectID{"g_r0"},
		Values: values(t, desc, "k", "A"),
	}); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("trigger fired %d times across clones but want 1", fired)
	}
}

// TestDomainNeverWidens spot-checks the lattice on the value-set
// level: a restriction is an intersection whatever mask an action
// carries.
func TestDomainNeverWidens(t *testing.T) {
	desc := compile(t, blockCounterItems()...)
	fake := newFakeIR().add("D", "d0", "d1", "d2", "d3")
	cat := catalogue.New().
		BindSet("D", fake.binding("D")).
		BindAmount("1", constAmount(1)).
		BindAmount("3", constAmount(3))
	s := open(t, desc, cat, fake)

	narrow := values(t, desc, "dim_kind", "BLOCK", "THREAD")
	if err := s.Apply(store.Action{
		Choice: "dim_kind", Args: []catalogue.ObjectID{"d0"}, Values: narrow,
	}); err != nil {
		t.Fatal(err)
	}
	wider := values(t, desc, "dim_kind", "BLOCK", "THREAD", "LOOP")
	if err := s.Apply(store.Action{
		Choice: "dim_kind", Args: []catalogue.ObjectID{"d0"}, Values: wider,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := s.EnumDomain("dim_kind", "d0")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(narrow.Intersect(wider)) {
		t.Errorf("domain widened to %v", got)
	}
}
