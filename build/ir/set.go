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

// Set is a named collection of IR objects over which choices are
// parameterised. The core never enumerates a set itself: iteration and
// membership are host snippets resolved through the set catalogue
// against a concrete IR instance.
type Set struct {
	name string
	// arg is the set the parameter ranges over, nil for plain sets.
	arg *Set

	superset *Set
	disjoint []string
	quotient *Quotient

	itemType     Code
	idType       Code
	itemGetter   Code
	idGetter     Code
	iterator     Code
	fromSuperset Code
	reverse      *Reverse
	varPrefix    string
	newObjs      Code
	addToSet     Code
}

// Reverse is the reverse lookup of a subset relationship: given an
// element of the superset, it yields the related elements of the
// subset.
type Reverse struct {
	// Var is the set the reverse lookup iterates over.
	Var *Set
	// Expr is the host iteration snippet.
	Expr Code
}

// Quotient describes a set as the classes of another set under an
// equivalence choice.
type Quotient struct {
	// Of is the divided set.
	Of *Set
	// Equiv is the enum choice relating two elements of the same class.
	Equiv string
	// EquivValues are the values of Equiv under which two elements are
	// equivalent.
	EquivValues ValueSet
	// Repr is the boolean membership choice marking class
	// representatives; restricting it to TRUE triggers the add-to-set
	// hook of the quotient set.
	Repr string
}

// SetBuilder accumulates the attributes of a set under construction.
// The zero value declares a plain, standalone set.
type SetBuilder struct {
	Name         string
	Arg          *Set
	Superset     *Set
	Disjoint     []string
	Quotient     *Quotient
	ItemType     Code
	IDType       Code
	ItemGetter   Code
	IDGetter     Code
	Iterator     Code
	FromSuperset Code
	Reverse      *Reverse
	VarPrefix    string
	NewObjs      Code
	AddToSet     Code
}

// Build returns the immutable set.
func (b SetBuilder) Build() *Set {
	return &Set{
		name:         b.Name,
		arg:          b.Arg,
		superset:     b.Superset,
		disjoint:     b.Disjoint,
		quotient:     b.Quotient,
		itemType:     b.ItemType,
		idType:       b.IDType,
		itemGetter:   b.ItemGetter,
		idGetter:     b.IDGetter,
		iterator:     b.Iterator,
		fromSuperset: b.FromSuperset,
		reverse:      b.Reverse,
		varPrefix:    b.VarPrefix,
		newObjs:      b.NewObjs,
		addToSet:     b.AddToSet,
	}
}

// Name returns the name of the set.
func (s *Set) Name() string { return s.name }

// Arg returns the set the parameter ranges over, or nil for a plain
// set.
func (s *Set) Arg() *Set { return s.arg }

// Superset returns the set this set is a subset of, or nil.
func (s *Set) Superset() *Set { return s.superset }

// Disjoint returns the names of the sets declared disjoint with this
// one.
func (s *Set) Disjoint() []string { return s.disjoint }

// Quotient returns the quotient description of the set, or nil.
func (s *Set) Quotient() *Quotient { return s.quotient }

// ItemType returns the host type of the set elements.
func (s *Set) ItemType() Code { return s.itemType }

// IDType returns the host type of the element identifiers.
func (s *Set) IDType() Code { return s.idType }

// ItemGetter returns the host snippet fetching an element from its
// identifier.
func (s *Set) ItemGetter() Code { return s.itemGetter }

// IDGetter returns the host snippet fetching the identifier of an
// element.
func (s *Set) IDGetter() Code { return s.idGetter }

// Iterator returns the host snippet enumerating the set.
func (s *Set) Iterator() Code { return s.iterator }

// FromSuperset returns the host snippet filtering a superset element
// into this set, or the zero snippet.
func (s *Set) FromSuperset() Code { return s.fromSuperset }

// ReverseDef returns the reverse lookup of the subset relationship, or
// nil.
func (s *Set) ReverseDef() *Reverse { return s.reverse }

// VarPrefix returns the preferred variable prefix in emitted code.
func (s *Set) VarPrefix() string { return s.varPrefix }

// NewObjs returns the new-objects log accessor snippet.
func (s *Set) NewObjs() Code { return s.newObjs }

// AddToSet returns the host hook appending an inferred element to the
// set, or the zero snippet.
func (s *Set) AddToSet() Code { return s.addToSet }

// Root returns the topmost superset of the set, following subset
// relationships. A set with no superset is its own root.
func (s *Set) Root() *Set {
	r := s
	for r.superset != nil {
		r = r.superset
	}
	return r
}

// IsSubsetOf returns true if every element of s is an element of o,
// following the declared subset chain.
func (s *Set) IsSubsetOf(o *Set) bool {
	for c := s; c != nil; c = c.superset {
		if c == o {
			return true
		}
	}
	return false
}
