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
	"strings"

	"github.com/pkg/errors"
)

// Choice is a decision attached to a tuple of set elements.
type Choice struct {
	name      string
	doc       string
	arguments *Arguments
	def       ChoiceDef
	filters   []*Filter
	// fragile values are kept by filter-driven restrictions and only
	// removed by explicit actions.
	fragile ValueSet
}

// NewChoice declares a choice.
func NewChoice(name, doc string, args *Arguments, def ChoiceDef) *Choice {
	return &Choice{name: name, doc: doc, arguments: args, def: def}
}

// Name returns the name of the choice, in snake_case.
func (c *Choice) Name() string { return c.name }

// Doc returns the documentation attached to the choice.
func (c *Choice) Doc() string { return c.doc }

// Arguments returns the tuple of sets the choice is defined over.
func (c *Choice) Arguments() *Arguments { return c.arguments }

// Def returns the definition of the choice.
func (c *Choice) Def() ChoiceDef { return c.def }

// Filters returns the filters narrowing the choice.
func (c *Choice) Filters() []*Filter { return c.filters }

// AddFilter attaches a filter to the choice and returns its index.
func (c *Choice) AddFilter(f *Filter) int {
	c.filters = append(c.filters, f)
	return len(c.filters) - 1
}

// FragileValues returns the values filters may not remove
// automatically.
func (c *Choice) FragileValues() ValueSet { return c.fragile }

// AddFragileValues extends the values filters may not remove
// automatically.
func (c *Choice) AddFragileValues(values ValueSet) {
	if c.fragile.IsEmpty() {
		c.fragile = values
		return
	}
	c.fragile = c.fragile.Union(values)
}

// BoundSet is a set bound to a quantified position. For parameterised
// sets, Param is the previously bound variable the set is applied to.
type BoundSet struct {
	Set *Set
	// Param is nil for plain sets.
	Param *Variable
}

// Arguments is the tuple of sets a choice is defined over. A symmetric
// choice is defined on the triangular space of a single set; the rest
// is read through the canonicalising view of the store.
type Arguments struct {
	names     []string
	sets      []BoundSet
	symmetric bool
	// inverse marks an antisymmetric choice: swapping the arguments
	// applies the enum involution to the value.
	inverse bool
}

// PlainArgs returns an argument tuple with no symmetry.
func PlainArgs(names []string, sets []BoundSet) *Arguments {
	return &Arguments{names: names, sets: sets}
}

// SymmetricArgs returns a two-argument tuple over a single set,
// invariant under the argument swap. With inverse set, the swap applies
// the enum involution instead.
func SymmetricArgs(names [2]string, set *Set, inverse bool) *Arguments {
	return &Arguments{
		names:     names[:],
		sets:      []BoundSet{{Set: set}, {Set: set}},
		symmetric: !inverse,
		inverse:   inverse,
	}
}

// Len returns the number of arguments.
func (a *Arguments) Len() int { return len(a.sets) }

// Name returns the name of the i-th argument.
func (a *Arguments) Name(i int) string { return a.names[i] }

// Set returns the set of the i-th argument.
func (a *Arguments) Set(i int) BoundSet { return a.sets[i] }

// Sets returns the sets of all arguments.
func (a *Arguments) Sets() []BoundSet { return a.sets }

// IsSymmetric returns true if the argument space is triangular.
func (a *Arguments) IsSymmetric() bool { return a.symmetric || a.inverse }

// IsInverse returns true if the argument swap applies the enum
// involution.
func (a *Arguments) IsInverse() bool { return a.inverse }

// ----------------------------------------------------------------------------
// Choice definitions.

type (
	// ChoiceDef specifies the kind of values a choice can take.
	ChoiceDef interface {
		// ValueType describes the domain representation.
		ValueType() ValueType
	}

	// EnumChoice takes values from a finite named value set.
	EnumChoice struct {
		Enum *Enum
	}

	// IntegerChoice takes values from a host-computed universe.
	IntegerChoice struct {
		Universe Code
	}

	// CounterChoice is an aggregate whose interval is derived from the
	// choices it counts.
	CounterChoice struct {
		Kind CounterKind
		// Half counters only expose their lower bound; their limit is
		// only bounded from above (by < and <= requires).
		Half bool
		// Base is the host constant part, or the zero snippet for the
		// monoid identity.
		Base Code
		// IterSets are the sets of the forall contributors.
		IterSets []BoundSet
		// Incr is the choice instance guarding each contribution, from
		// the counter's point of view (arguments then foralls).
		Incr ChoiceInstance
		// IncrCondition is the value set of Incr under which the
		// contribution counts.
		IncrCondition ValueSet
		// Value is the contributed amount.
		Value CounterVal
	}
)

// CounterKind is the monoid a counter aggregates with.
type CounterKind int

// Counter kinds.
const (
	// CounterAdd sums contributions; identity 0.
	CounterAdd CounterKind = iota
	// CounterMul multiplies contributions; identity 1.
	CounterMul
)

// Identity returns the monoid identity.
func (k CounterKind) Identity() int64 {
	if k == CounterMul {
		return 1
	}
	return 0
}

// Apply combines two amounts with the monoid operation, saturating.
func (k CounterKind) Apply(a, b int64) int64 {
	if k == CounterMul {
		return satMul(a, b)
	}
	return satAdd(a, b)
}

// CounterMax saturates counter arithmetic: bounds never exceed it.
const CounterMax = int64(1) << 62

func satAdd(a, b int64) int64 {
	if s := a + b; s >= a && s <= CounterMax {
		return s
	}
	return CounterMax
}

func satMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > CounterMax/b {
		return CounterMax
	}
	return a * b
}

type (
	// CounterVal is the value contributed by one counter increment.
	CounterVal interface {
		counterVal()
	}

	// CounterValCode is a host-computed contribution.
	CounterValCode struct {
		Code Code
	}

	// CounterValCounter contributes the current interval of another
	// counter.
	CounterValCounter struct {
		Counter ChoiceInstance
	}
)

func (CounterValCode) counterVal()    {}
func (CounterValCounter) counterVal() {}

// ValueType describes the representation of a choice domain.
type (
	// ValueType of the values a choice can take.
	ValueType interface {
		valueType()
	}

	// EnumType is a bitmask domain over a named enum.
	EnumType struct {
		Enum *Enum
	}

	// RangeType is a counter interval domain.
	RangeType struct {
		Half bool
	}

	// NumericType is a host-provided integer domain.
	NumericType struct {
		Universe Code
	}
)

func (EnumType) valueType()    {}
func (RangeType) valueType()   {}
func (NumericType) valueType() {}

// ValueType returns the domain representation of an enum choice.
func (d EnumChoice) ValueType() ValueType { return EnumType{Enum: d.Enum} }

// ValueType returns the domain representation of an integer choice.
func (d IntegerChoice) ValueType() ValueType { return NumericType{Universe: d.Universe} }

// ValueType returns the domain representation of a counter.
func (d CounterChoice) ValueType() ValueType { return RangeType{Half: d.Half} }

// ChoiceInstance references a choice applied to variables of an
// enclosing filter, trigger or counter.
type ChoiceInstance struct {
	Choice string
	Vars   []Variable
}

// String returns a debug form of the instance.
func (c ChoiceInstance) String() string {
	vars := make([]string, len(c.Vars))
	for i, v := range c.Vars {
		vars[i] = v.String()
	}
	return c.Choice + "(" + strings.Join(vars, ", ") + ")"
}

// EnumOf returns the enum a choice draws its values from.
func EnumOf(d *Desc, choice string) (*Enum, error) {
	c, ok := d.Choice(choice)
	if !ok {
		return nil, errors.Errorf("undefined choice %s", choice)
	}
	def, ok := c.Def().(EnumChoice)
	if !ok {
		return nil, errors.Errorf("choice %s is not an enum", choice)
	}
	return def.Enum, nil
}
