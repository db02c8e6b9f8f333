package iter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sx-org/sx/base/iter"
)

func TestAll(t *testing.T) {
	var got []int
	for el := range iter.All([]int{1, 2}, nil, []int{3}) {
		got = append(got, el)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("wrong elements (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	even := func(i int) bool { return i%2 == 0 }
	var got []int
	for el := range iter.Filter(even, []int{1, 2, 3}, []int{4, 5}) {
		got = append(got, el)
	}
	if diff := cmp.Diff([]int{2, 4}, got); diff != "" {
		t.Errorf("wrong elements (-want +got):\n%s", diff)
	}
}

func TestProduct(t *testing.T) {
	tests := []struct {
		axes [][]string
		want [][]string
	}{
		{
			axes: [][]string{{"a", "b"}, {"x", "y"}},
			want: [][]string{{"a", "x"}, {"a", "y"}, {"b", "x"}, {"b", "y"}},
		},
		{
			axes: [][]string{{"a"}},
			want: [][]string{{"a"}},
		},
		{
			axes: nil,
			want: [][]string{{}},
		},
		{
			axes: [][]string{{"a", "b"}, nil},
			want: nil,
		},
	}
	for ti, test := range tests {
		var got [][]string
		for tuple := range iter.Product(test.axes...) {
			got = append(got, append([]string{}, tuple...))
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: wrong tuples (-want +got):\n%s", ti, diff)
		}
	}
}
