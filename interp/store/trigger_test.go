package store_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/store"
)

// growSpec declares a set grown by a trigger: once flag($r) is ON, the
// host action adds an element to Grown, and every choice over Grown
// must be instantiated and filtered before the apply returns.
func growSpec() []ast.Item {
	trigger := &ast.TriggerDef{
		TriggerPos: 1,
		Foralls:    []*ast.VarDef{vdef("r", "Roots")},
		Code:       code("grow($r)", "r"),
		Conditions: []ast.Condition{
			isCond(inst("flag", "r"), true, "ON"),
		},
	}
	return []ast.Item{
		setDef("Roots"),
		setDef("Grown"),
		enumDef("flag", []*ast.VarDef{vdef("r", "Roots")}, "OFF", "ON"),
		enumDef("k", []*ast.VarDef{vdef("g", "Grown")}, "A", "B"),
		require([]*ast.VarDef{vdef("g", "Grown")},
			[]ast.Condition{
				isCond(inst("k", "g"), false, "B"),
				&ast.ConditionCode{Code: code("never")},
			}),
		trigger,
	}
}

func growCatalogue(fake *fakeIR, fired *int) *catalogue.Catalogue {
	return catalogue.New().
		BindSet("Roots", fake.binding("Roots")).
		BindSet("Grown", fake.binding("Grown")).
		BindPredicate("never", func(catalogue.Instance, []catalogue.ObjectID) bool { return false }).
		BindAction("grow($r)", func(inst catalogue.Instance, objs []catalogue.ObjectID, log *catalogue.NewObjs) bool {
			*fired++
			id := catalogue.ObjectID("g_" + string(objs[0]))
			inst.(*fakeIR).add("Grown", id)
			log.Add("Grown", catalogue.NoParent, id)
			return true
		})
}

// TestNewObjectWave checks that firing a trigger grows a set and that
// the resulting instances exist, filtered, before the apply returns.
func TestNewObjectWave(t *testing.T) {
	desc := compile(t, growSpec()...)
	fake := newFakeIR().add("Roots", "r0")
	fired := 0
	s := open(t, desc, growCatalogue(fake, &fired), fake)

	if _, err := s.EnumDomain("k", "g_r0"); err == nil {
		t.Fatal("choice over an empty set has instances")
	}
	if err := s.Apply(store.Action{
		Choice: "flag",
		Args:   []catalogue.ObjectID{"r0"},
		Values: values(t, desc, "flag", "ON"),
	}); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Fatalf("trigger fired %d times but want 1", fired)
	}
	// The new instance is live and already filtered.
	wantDomain(t, s, "k", []catalogue.ObjectID{"g_r0"}, values(t, desc, "k", "A"))
}

// TestTriggerAtMostOnce checks that a trigger never fires twice for
// the same argument tuple, even across later propagations.
func TestTriggerAtMostOnce(t *testing.T) {
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
	// Another decision re-enters propagation; the fired tuple must not
	// re-run.
	if err := s.Apply(store.Action{
		Choice: "k",
		Args:   []catalogue.ObjectID{"g_r0"},
		Values: values(t, desc, "k", "A"),
	}); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("trigger fired %d times but want 1", fired)
	}
}

// TestTriggerFailure checks that a false-returning action is a
// contradiction.
func TestTriggerFailure(t *testing.T) {
	items := []ast.Item{
		setDef("Roots"),
		enumDef("flag", []*ast.VarDef{vdef("r", "Roots")}, "OFF", "ON"),
		&ast.TriggerDef{
			TriggerPos: 1,
			Foralls:    []*ast.VarDef{vdef("r", "Roots")},
			Code:       code("reject($r)", "r"),
			Conditions: []ast.Condition{
				isCond(inst("flag", "r"), true, "ON"),
			},
		},
	}
	desc := compile(t, items...)
	fake := newFakeIR().add("Roots", "r0")
	cat := catalogue.New().
		BindSet("Roots", fake.binding("Roots")).
		BindAction("reject($r)", func(catalogue.Instance, []catalogue.ObjectID, *catalogue.NewObjs) bool {
			return false
		})
	s := open(t, desc, cat, fake)

	err := s.Apply(store.Action{
		Choice: "flag",
		Args:   []catalogue.ObjectID{"r0"},
		Values: values(t, desc, "flag", "ON"),
	})
	if !errors.Is(err, store.ErrContradiction) {
		t.Fatalf("got %v but want a contradiction", err)
	}
}
