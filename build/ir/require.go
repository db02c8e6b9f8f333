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

package ir

// CounterRequire bounds a counter instance by a host-computed constant,
// compiled from a `require C op constant` clause. The store evaluates
// it as a monotone inequality: the counter's limit interval narrows to
// the bound, and narrowing the derived interval past the limit is a
// contradiction.
type CounterRequire struct {
	// ForallSets quantify the constraint.
	ForallSets []BoundSet
	// Counter is the bounded instance; its variables are foralls.
	Counter ChoiceInstance
	Op      CmpOp
	// Rhs is the host constant.
	Rhs Code
}

// AddCounterRequire registers a counter bound.
func (d *Desc) AddCounterRequire(r *CounterRequire) {
	d.counterRequires = append(d.counterRequires, r)
}

// CounterRequires returns the registered counter bounds.
func (d *Desc) CounterRequires() []*CounterRequire {
	return d.counterRequires
}

// StaticRequire is a clause with no enum occurrence to restrict: it can
// only be checked, not propagated. The store re-evaluates it whenever a
// referenced instance narrows; once every condition is certain the
// clause is falsified and the store fails.
type StaticRequire struct {
	// ForallSets quantify the clause.
	ForallSets []BoundSet
	// Inputs are the instances the conditions read.
	Inputs []ChoiceInstance
	// Conditions are the negations of the clause literals: if they all
	// hold, no literal can be satisfied.
	Conditions []Test
}

// AddStaticRequire registers an unpropagatable clause.
func (d *Desc) AddStaticRequire(r *StaticRequire) {
	d.staticRequires = append(d.staticRequires, r)
}

// StaticRequires returns the registered unpropagatable clauses.
func (d *Desc) StaticRequires() []*StaticRequire {
	return d.staticRequires
}
