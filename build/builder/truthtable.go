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
	"fmt"
	"strings"

	"github.com/sx-org/sx/build/ir"
)

// simplify statically reduces the rows of a truth table: trivially
// true guards are removed, rows whose guard can never hold are
// dropped, and duplicated rows are kept once. The rows are the
// compiled form of the constraints; everything the store does follows
// from them.
func simplify(rules []ir.Rule) []ir.Rule {
	var out []ir.Rule
	seen := make(map[string]bool)
	for _, rule := range rules {
		keep := true
		var conds []ir.Test
		for _, t := range rule.Conditions {
			et, isEnum := t.(ir.EnumTest)
			if !isEnum {
				conds = append(conds, t)
				continue
			}
			if et.Values.IsEmpty() {
				if et.Subset {
					// A domain is never empty in a consistent store:
					// the row cannot fire.
					keep = false
					break
				}
				// Disjoint from nothing: always true.
				continue
			}
			conds = append(conds, et)
		}
		if !keep {
			continue
		}
		rule = ir.Rule{Conditions: conds, Alternatives: rule.Alternatives}
		key := ruleKey(rule)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rule)
	}
	return out
}

func ruleKey(rule ir.Rule) string {
	var sb strings.Builder
	for _, t := range rule.Conditions {
		switch test := t.(type) {
		case ir.EnumTest:
			fmt.Fprintf(&sb, "e%d:%#x:%v|", test.Input, test.Values.Mask(), test.Subset)
		case ir.CodeTest:
			fmt.Fprintf(&sb, "c%s:%v|", test.Code.Hash(), test.Want)
		case ir.CmpTest:
			fmt.Fprintf(&sb, "m%d:%s:%s|", test.Input, test.Op, test.Rhs.Hash())
		}
	}
	fmt.Fprintf(&sb, "a%#x", rule.Alternatives.Mask())
	return sb.String()
}
