package ordered_test

import (
	"testing"

	"github.com/sx-org/sx/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			want: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
				{k: "b", v: 2},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "a", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
			},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, entry := range test.entries {
			m.Store(entry.k, entry.v)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}

		// Clone the map before the checks.
		m = m.Clone()

		i := 0
		for gotK, gotV := range m.Iter() {
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotK != wantK || gotV != wantV {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, gotK, gotV, wantK, wantV)
			}
			i++
		}
		for _, want := range test.want {
			if !m.Has(want.k) {
				t.Errorf("test %d: key %s missing", ti, want.k)
			}
			if got, _ := m.Load(want.k); got != want.v {
				t.Errorf("test %d: key %s loads %d but want %d", ti, want.k, got, want.v)
			}
		}
		if m.Has("zz") {
			t.Errorf("test %d: unknown key found", ti)
		}
	}
}

func TestCloneWith(t *testing.T) {
	m := ordered.NewMap[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)
	doubled := ordered.CloneWith(m, func(v int) int { return 2 * v })
	var got []int
	for v := range doubled.Values() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("cloned values are %v", got)
	}
	// The source map is untouched.
	if v, _ := m.Load("a"); v != 1 {
		t.Errorf("source map changed: a=%d", v)
	}
}

func TestKeysValues(t *testing.T) {
	m := ordered.NewMap[int, string]()
	m.Store(3, "c")
	m.Store(1, "a")
	m.Store(2, "b")
	var keys []int
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	// Insertion order, not key order.
	want := []int{3, 1, 2}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys are %v but want %v", keys, want)
		}
	}
}
