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

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
	"github.com/sx-org/sx/base/ordered"
)

// MaxEnumValues bounds the number of values of an enum so that a value
// set fits in one machine word.
const MaxEnumValues = 64

// BoolEnum is the name of the builtin boolean enum.
const BoolEnum = "Bool"

// Builtin boolean values.
const (
	BoolTrue  = "TRUE"
	BoolFalse = "FALSE"
)

// Enum is a finite named value set shared by one or more enum choices.
type Enum struct {
	name    string
	doc     string
	values  []string
	docs    map[string]string
	aliases *ordered.Map[string, uint64]
	// inverse is the value permutation of an antisymmetric enum, as
	// value index to value index, or nil.
	inverse []int
}

// NewEnum returns an enum with no value.
func NewEnum(name, doc string) *Enum {
	return &Enum{
		name:    name,
		doc:     doc,
		docs:    make(map[string]string),
		aliases: ordered.NewMap[string, uint64](),
	}
}

// NewBoolEnum returns the builtin boolean enum.
func NewBoolEnum() *Enum {
	e := NewEnum(BoolEnum, "builtin boolean values")
	if err := e.AddValue(BoolFalse, ""); err != nil {
		panic(err)
	}
	if err := e.AddValue(BoolTrue, ""); err != nil {
		panic(err)
	}
	return e
}

// Name returns the name of the enum.
func (e *Enum) Name() string { return e.name }

// Doc returns the documentation attached to the enum.
func (e *Enum) Doc() string { return e.doc }

// Values returns the declared value names, in declaration order.
func (e *Enum) Values() []string { return e.values }

// AddValue declares a value.
func (e *Enum) AddValue(name, doc string) error {
	if _, ok := e.ValueIndex(name); ok {
		return errors.Errorf("enum %s: value %s declared twice", e.name, name)
	}
	if e.aliases.Has(name) {
		return errors.Errorf("enum %s: %s already names an alias", e.name, name)
	}
	if len(e.values) == MaxEnumValues {
		return errors.Errorf("enum %s: more than %d values", e.name, MaxEnumValues)
	}
	e.values = append(e.values, name)
	if doc != "" {
		e.docs[name] = doc
	}
	return nil
}

// AddAlias declares an alias denoting the union of previously declared
// values and aliases.
func (e *Enum) AddAlias(name string, of ...string) error {
	if _, ok := e.ValueIndex(name); ok {
		return errors.Errorf("enum %s: %s already names a value", e.name, name)
	}
	if e.aliases.Has(name) {
		return errors.Errorf("enum %s: alias %s declared twice", e.name, name)
	}
	mask, err := e.mask(of)
	if err != nil {
		return err
	}
	e.aliases.Store(name, mask)
	return nil
}

// ValueIndex returns the bit index of a value name.
func (e *Enum) ValueIndex(name string) (int, bool) {
	for i, v := range e.values {
		if v == name {
			return i, true
		}
	}
	return 0, false
}

// ValueDoc returns the documentation of a value.
func (e *Enum) ValueDoc(name string) string { return e.docs[name] }

func (e *Enum) mask(names []string) (uint64, error) {
	var mask uint64
	for _, name := range names {
		if i, ok := e.ValueIndex(name); ok {
			mask |= 1 << uint(i)
			continue
		}
		if m, ok := e.aliases.Load(name); ok {
			mask |= m
			continue
		}
		return 0, errors.Errorf("enum %s: undefined value %s", e.name, name)
	}
	return mask, nil
}

// ValueSet returns the value set denoted by the given value and alias
// names.
func (e *Enum) ValueSet(names ...string) (ValueSet, error) {
	mask, err := e.mask(names)
	if err != nil {
		return ValueSet{}, err
	}
	return ValueSet{enum: e.name, mask: mask}, nil
}

// All returns the full value set of the enum.
func (e *Enum) All() ValueSet {
	var mask uint64
	if n := len(e.values); n == 64 {
		mask = ^uint64(0)
	} else {
		mask = 1<<uint(n) - 1
	}
	return ValueSet{enum: e.name, mask: mask}
}

// Empty returns the empty value set of the enum.
func (e *Enum) Empty() ValueSet {
	return ValueSet{enum: e.name}
}

// SetInverse declares the value permutation of an antisymmetric enum.
// The mapping must be an involution covering every value exactly once
// (unmapped values map to themselves).
func (e *Enum) SetInverse(mapping [][2]string) error {
	inverse := make([]int, len(e.values))
	for i := range inverse {
		inverse[i] = i
	}
	for _, m := range mapping {
		from, ok := e.ValueIndex(m[0])
		if !ok {
			return errors.Errorf("enum %s: undefined value %s", e.name, m[0])
		}
		to, ok := e.ValueIndex(m[1])
		if !ok {
			return errors.Errorf("enum %s: undefined value %s", e.name, m[1])
		}
		if inverse[from] != to && (inverse[from] != from || inverse[to] != to) {
			return errors.Errorf("enum %s: value %s or %s mapped twice", e.name, m[0], m[1])
		}
		inverse[from] = to
		inverse[to] = from
	}
	e.inverse = inverse
	return nil
}

// IsAntiSymmetric returns true if the enum declares an inverse
// permutation.
func (e *Enum) IsAntiSymmetric() bool { return e.inverse != nil }

// Inverse applies the antisymmetric permutation to a value set.
// Without a declared permutation the set is returned unchanged.
func (e *Enum) Inverse(set ValueSet) ValueSet {
	if e.inverse == nil {
		return set
	}
	var mask uint64
	rest := set.mask
	for rest != 0 {
		i := bits.TrailingZeros64(rest)
		rest &^= 1 << uint(i)
		mask |= 1 << uint(e.inverse[i])
	}
	return ValueSet{enum: set.enum, mask: mask}
}

// Names returns the value names of a value set, in declaration order.
func (e *Enum) Names(set ValueSet) []string {
	var names []string
	for i, v := range e.values {
		if set.mask&(1<<uint(i)) != 0 {
			names = append(names, v)
		}
	}
	return names
}

// Format returns a human-readable form of a value set.
func (e *Enum) Format(set ValueSet) string {
	return e.name + "{" + strings.Join(e.Names(set), "|") + "}"
}
