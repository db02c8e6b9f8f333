package catalogue_test

import (
	"testing"

	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
)

func TestSnippetSharing(t *testing.T) {
	calls := 0
	cat := catalogue.New().
		BindPredicate("is_sized($m)", func(catalogue.Instance, []catalogue.ObjectID) bool {
			calls++
			return true
		})

	// Two textually equal snippets share one binding.
	first := ir.NewCode("is_sized($m)", ir.Arg(0))
	second := ir.NewCode("is_sized($m)", ir.Forall(0))
	for _, code := range []ir.Code{first, second} {
		pred, err := cat.Predicate(code)
		if err != nil {
			t.Fatal(err)
		}
		pred(nil, nil)
	}
	if calls != 2 {
		t.Errorf("predicate ran %d times but want 2", calls)
	}

	if _, err := cat.Predicate(ir.NewCode("other($m)")); err == nil {
		t.Error("an unbound snippet resolved")
	}
}

func TestMissingBindings(t *testing.T) {
	cat := catalogue.New()
	if _, err := cat.Set("Dimensions"); err == nil {
		t.Error("an unbound set resolved")
	}
	if _, err := cat.Amount(ir.NewCode("1")); err == nil {
		t.Error("an unbound amount resolved")
	}
	if _, err := cat.Action(ir.NewCode("lower($d)")); err == nil {
		t.Error("an unbound action resolved")
	}
	if _, err := cat.Universe(ir.NewCode("sizes($d)")); err == nil {
		t.Error("an unbound universe resolved")
	}
	if _, err := cat.IntegerOps(); err == nil {
		t.Error("missing integer ops resolved")
	}
}

func TestNewObjsLog(t *testing.T) {
	var log catalogue.NewObjs
	if !log.Empty() {
		t.Fatal("fresh log is not empty")
	}
	log.Add("Grown", catalogue.NoParent, "g0")
	log.Add("Grown", "r0", "g1")
	objs := log.Drain()
	if !log.Empty() {
		t.Error("drained log is not empty")
	}
	if len(objs) != 2 {
		t.Fatalf("drained %d objects but want 2", len(objs))
	}
	if objs[1].Set != "Grown" || objs[1].Parent != "r0" || objs[1].ID != "g1" {
		t.Errorf("second object is %+v", objs[1])
	}
}
