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

// Package domain provides the value-domain primitives of the store.
//
// Enum domains are [ir.ValueSet] bitmasks: the lattice is reverse set
// inclusion, the top is the full mask of the enum, and the empty mask
// is the failed domain. This package adds the interval domain of
// counters, the host-referenced integer domain, and the three-valued
// truth of a domain test.
package domain

import "github.com/sx-org/sx/build/ir"

// Bool is the three-valued truth of a test over an unconstrained
// domain.
type Bool int

// Truth values.
const (
	// False: the test fails for every remaining value.
	False Bool = iota
	// True: the test holds for every remaining value.
	True
	// Maybe: the remaining values disagree on the test.
	Maybe
)

// String returns a debug form of the truth value.
func (b Bool) String() string {
	switch b {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "maybe"
	}
}

// IsTrue returns true for the certain truth.
func (b Bool) IsTrue() bool { return b == True }

// IsFalse returns true for the certain falsehood.
func (b Bool) IsFalse() bool { return b == False }

// MaybeTrue returns true unless the test certainly fails.
func (b Bool) MaybeTrue() bool { return b != False }

// Truth returns the three-valued result of testing an enum domain
// against a value set.
func Truth(dom, values ir.ValueSet) Bool {
	switch {
	case dom.SubsetOf(values):
		return True
	case dom.Disjoint(values):
		return False
	default:
		return Maybe
	}
}
