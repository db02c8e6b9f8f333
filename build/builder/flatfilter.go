// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builder

import (
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/sx-org/sx/build/ir"
)

// attachFilters merges the compiled fragments of each choice: fragments
// with the same quantification and the same inputs become the rows of
// one truth table.
func (b *bld) attachFilters() {
	for choice := range b.desc.Choices() {
		frags := b.fragments[choice.Name()]
		if len(frags) == 0 {
			continue
		}
		groups := make(map[string][]*fragment)
		for _, f := range frags {
			groups[signature(f)] = append(groups[signature(f)], f)
		}
		sigs := maps.Keys(groups)
		slices.Sort(sigs)
		for _, sig := range sigs {
			group := groups[sig]
			rules := make([]ir.Rule, 0, len(group))
			for _, f := range group {
				rules = append(rules, f.rule)
			}
			rules = simplify(rules)
			if len(rules) == 0 {
				continue
			}
			choice.AddFilter(&ir.Filter{
				ForallSets: group[0].foralls,
				Inputs:     group[0].inputs,
				Rules:      rules,
			})
		}
	}
}

// signature keys a fragment by its quantification and inputs.
func signature(f *fragment) string {
	var sb strings.Builder
	for _, bs := range f.foralls {
		sb.WriteString(bs.Set.Name())
		if bs.Param != nil {
			sb.WriteString("(" + bs.Param.String() + ")")
		}
		sb.WriteString(";")
	}
	sb.WriteString("|")
	for _, in := range f.inputs {
		sb.WriteString(in.String())
		sb.WriteString(";")
	}
	return sb.String()
}
