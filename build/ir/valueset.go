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

import "math/bits"

// ValueSet is a subset of the values of an enum, as a bitmask over the
// enum's declared values. The zero value is the empty set of no enum.
type ValueSet struct {
	enum string
	mask uint64
}

// Enum returns the name of the enum the set draws from.
func (s ValueSet) Enum() string { return s.enum }

// Mask returns the raw bitmask.
func (s ValueSet) Mask() uint64 { return s.mask }

// Count returns the number of values in the set.
func (s ValueSet) Count() int { return bits.OnesCount64(s.mask) }

// IsEmpty returns true for the empty set. An empty domain is a failed
// domain.
func (s ValueSet) IsEmpty() bool { return s.mask == 0 }

// IsConstrained returns true when a single value remains.
func (s ValueSet) IsConstrained() bool { return s.Count() == 1 }

// Contains returns true if the set holds the value with the given bit
// index.
func (s ValueSet) Contains(i int) bool {
	return i >= 0 && i < MaxEnumValues && s.mask&(1<<uint(i)) != 0
}

// Union returns the union of both sets.
func (s ValueSet) Union(o ValueSet) ValueSet {
	return ValueSet{enum: s.enum, mask: s.mask | o.mask}
}

// Intersect returns the intersection of both sets.
func (s ValueSet) Intersect(o ValueSet) ValueSet {
	return ValueSet{enum: s.enum, mask: s.mask & o.mask}
}

// Minus returns the values of s not in o.
func (s ValueSet) Minus(o ValueSet) ValueSet {
	return ValueSet{enum: s.enum, mask: s.mask &^ o.mask}
}

// SubsetOf returns true if every value of s is in o.
func (s ValueSet) SubsetOf(o ValueSet) bool {
	return s.mask&^o.mask == 0
}

// Disjoint returns true if the sets have no value in common.
func (s ValueSet) Disjoint(o ValueSet) bool {
	return s.mask&o.mask == 0
}

// Equal returns true if both sets hold the same values.
func (s ValueSet) Equal(o ValueSet) bool {
	return s.enum == o.enum && s.mask == o.mask
}
