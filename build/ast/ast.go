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

// Package ast is the contract between the external specification parser
// and the builder. A parsed specification is a flat list of items in
// declaration order; `include` directives have already been resolved by
// the parser, so a [Spec] always describes a single closed specification.
//
// Every node carries a position into a caller-owned [token.FileSet].
// The builder never reads source text; positions are only used to
// report errors.
package ast

import "go/token"

type (
	// Node is an element of the parsed specification.
	Node interface {
		// Pos returns the position of the node in the parsed sources.
		Pos() token.Pos
	}

	// Item is a top-level specification item.
	Item interface {
		Node
		item()
	}
)

// Spec is a parsed specification.
type Spec struct {
	// Items in declaration order.
	Items []Item
}

// Ident is a name with a position.
type Ident struct {
	NamePos token.Pos
	Name    string
}

// Pos returns the position of the identifier.
func (id *Ident) Pos() token.Pos { return id.NamePos }

// Code is an opaque host-language snippet. The builder never interprets
// its text beyond the variables the parser has extracted from it.
type Code struct {
	CodePos token.Pos
	// Text of the snippet, with variable markers left in place.
	Text string
	// Vars are the specification variables referenced by the snippet,
	// in order of first appearance.
	Vars []*Ident
}

// Pos returns the position of the snippet.
func (c *Code) Pos() token.Pos { return c.CodePos }

// VarDef introduces a variable ranging over a set, as in `$x in Set`
// or `$y in Set($x)`.
type VarDef struct {
	Name *Ident
	Set  *SetRef
}

// Pos returns the position of the definition.
func (d *VarDef) Pos() token.Pos { return d.Name.Pos() }

// SetRef references a declared set, optionally applied to a variable
// argument for parameterised sets.
type SetRef struct {
	Name *Ident
	// Arg is the variable the set is applied to, or nil.
	Arg *Ident
}

// Pos returns the position of the reference.
func (r *SetRef) Pos() token.Pos { return r.Name.Pos() }

// ----------------------------------------------------------------------------
// Set declarations.

// SetDef declares a set of IR objects, as in
// `set Dimensions: ... end` or `set IterationDims($i in Instructions) subsetof Dimensions: ... end`.
type SetDef struct {
	SetPos token.Pos
	Name   *Ident
	// Arg is the parameter of the set, or nil for a plain set.
	Arg *VarDef
	// Superset names the set this set is a subset of, or is nil.
	Superset *SetRef
	// Disjoint lists sets with no element in common with this one.
	Disjoint []*Ident

	// Keys of the set body. All are opaque host snippets except where noted.
	ItemType     *Code
	IDType       *Code
	ItemGetter   *Code
	IDGetter     *Code
	Iterator     *Code
	FromSuperset *Code
	// Reverse maps an element of the superset back to the elements of
	// this set it relates to, as in `reverse forall $x in S = "expr"`.
	Reverse *ReverseDef
	// VarPrefix is the preferred variable prefix in emitted code.
	VarPrefix string
	// NewObjs is the field of the new-objects log for this set.
	NewObjs *Code
	// AddToSet is invoked when an element is inferred into the set.
	AddToSet *Code

	// Quotient describes this set as a quotient of another, or is nil.
	Quotient *QuotientDef
}

// Pos returns the position of the declaration.
func (d *SetDef) Pos() token.Pos { return d.SetPos }

func (*SetDef) item() {}

// ReverseDef is the reverse lookup of a `from_superset` relationship.
type ReverseDef struct {
	Var  *VarDef
	Expr *Code
}

// Pos returns the position of the definition.
func (d *ReverseDef) Pos() token.Pos { return d.Var.Pos() }

// QuotientDef declares a set as the classes of another set under an
// equivalence choice, each class exposing a canonical representative.
type QuotientDef struct {
	// Var is the element variable ranging over the divided set.
	Var *VarDef
	// Equiv is the enum condition relating the element to the class;
	// it references Var and the parameter of the quotient set.
	Equiv *ConditionIs
	// Repr names the boolean membership choice the compiler
	// synthesises; restricting it to TRUE fires the add-to-set hook.
	Repr *Ident
}

// Pos returns the position of the definition.
func (d *QuotientDef) Pos() token.Pos { return d.Var.Pos() }

// ----------------------------------------------------------------------------
// Choice declarations.

// EnumDef declares an enum choice, as in
// `define enum dim_kind($d in Dimensions): ... end`.
type EnumDef struct {
	DefinePos token.Pos
	Doc       string
	Name      *Ident
	Vars      []*VarDef
	// Symmetric marks the choice invariant under swapping its two arguments.
	Symmetric bool
	// AntiSymmetric maps each value to its image under the argument
	// swap; nil when the choice is not antisymmetric.
	AntiSymmetric []ValueMapping
	Values        []*EnumValueDef
	Aliases       []*AliasDef
}

// Pos returns the position of the declaration.
func (d *EnumDef) Pos() token.Pos { return d.DefinePos }

func (*EnumDef) item() {}

// ValueMapping is one pair of an antisymmetric involution.
type ValueMapping struct {
	From *Ident
	To   *Ident
}

// EnumValueDef declares a value of an enum.
type EnumValueDef struct {
	Name *Ident
	Doc  string
	// Requires constrains the rest of the store when the choice takes
	// this value.
	Requires []*Require
}

// Pos returns the position of the declaration.
func (d *EnumValueDef) Pos() token.Pos { return d.Name.Pos() }

// AliasDef declares an alias denoting a union of enum values.
type AliasDef struct {
	Name   *Ident
	Doc    string
	Values []*Ident
	// Requires constrains the rest of the store when the choice takes
	// any of the aliased values.
	Requires []*Require
}

// Pos returns the position of the declaration.
func (d *AliasDef) Pos() token.Pos { return d.Name.Pos() }

// IntegerDef declares an integer choice whose universe is computed by
// the host, as in `define integer size($d in Dimensions): "expr" end`.
type IntegerDef struct {
	DefinePos token.Pos
	Doc       string
	Name      *Ident
	Vars      []*VarDef
	Universe  *Code
}

// Pos returns the position of the declaration.
func (d *IntegerDef) Pos() token.Pos { return d.DefinePos }

func (*IntegerDef) item() {}

// CounterKind is the monoid a counter aggregates with.
type CounterKind int

// Counter kinds.
const (
	CounterAdd CounterKind = iota
	CounterMul
)

// CounterDef declares a counter choice, as in
// `define half counter num_threads(): forall $d in Dimensions: ... end`.
type CounterDef struct {
	DefinePos token.Pos
	Doc       string
	Name      *Ident
	// Half counters only narrow their upper bound.
	Half bool
	Vars []*VarDef
	Body *CounterBody
}

// Pos returns the position of the declaration.
func (d *CounterDef) Pos() token.Pos { return d.DefinePos }

func (*CounterDef) item() {}

// CounterBody is the aggregation of a counter.
type CounterBody struct {
	Kind CounterKind
	// Base is the host expression for the constant part of the counter,
	// or nil for the monoid identity.
	Base *Code
	// IterVars are the universally quantified contributors.
	IterVars []*VarDef
	// Conditions guard each contribution (`when` clauses).
	Conditions []Condition
	// Value is the contributed amount.
	Value CounterVal
}

type (
	// CounterVal is the value contributed by one counter increment.
	CounterVal interface {
		Node
		counterVal()
	}

	// CounterValCode contributes a host-computed amount.
	CounterValCode struct {
		Code *Code
	}

	// CounterValChoice contributes the value of another counter.
	CounterValChoice struct {
		Counter *ChoiceInstance
	}
)

// Pos returns the position of the value.
func (v *CounterValCode) Pos() token.Pos { return v.Code.Pos() }

func (*CounterValCode) counterVal() {}

// Pos returns the position of the value.
func (v *CounterValChoice) Pos() token.Pos { return v.Counter.Pos() }

func (*CounterValChoice) counterVal() {}

// ----------------------------------------------------------------------------
// Constraints and triggers.

// Require is a universally quantified constraint, as in
// `require forall $a in S, $b in S: cond || cond`.
// The body is in conjunctive normal form: all clauses must hold, and a
// clause holds when at least one of its conditions does.
type Require struct {
	RequirePos token.Pos
	Foralls    []*VarDef
	Conjuncts  [][]Condition
}

// Pos returns the position of the constraint.
func (r *Require) Pos() token.Pos { return r.RequirePos }

func (*Require) item() {}

// TriggerDef declares a host hook fired when its guard becomes
// certainly true, as in `trigger forall $a in S: "code" when conds`.
type TriggerDef struct {
	TriggerPos token.Pos
	Foralls    []*VarDef
	Code       *Code
	Conditions []Condition
}

// Pos returns the position of the declaration.
func (d *TriggerDef) Pos() token.Pos { return d.TriggerPos }

func (*TriggerDef) item() {}

// ChoiceInstance references a choice applied to variables, as in
// `order($lhs, $rhs)`.
type ChoiceInstance struct {
	Name *Ident
	Vars []*Ident
}

// Pos returns the position of the reference.
func (c *ChoiceInstance) Pos() token.Pos { return c.Name.Pos() }

// CmpOp is a comparison operator in a condition.
type CmpOp int

// Comparison operators.
const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpLt
	CmpGt
	CmpLeq
	CmpGeq
)

var cmpOpNames = [...]string{"==", "!=", "<", ">", "<=", ">="}

// String returns the source form of the operator.
func (op CmpOp) String() string { return cmpOpNames[op] }

// Negate returns the complement operator.
func (op CmpOp) Negate() CmpOp {
	switch op {
	case CmpEq:
		return CmpNeq
	case CmpNeq:
		return CmpEq
	case CmpLt:
		return CmpGeq
	case CmpGt:
		return CmpLeq
	case CmpLeq:
		return CmpGt
	default:
		return CmpLt
	}
}

type (
	// Condition is an atom of a constraint clause.
	Condition interface {
		Node
		// Negated returns the complement of the condition.
		Negated() Condition
	}

	// ConditionIs tests an enum choice against a set of values, as in
	// `dim_kind($d) is BLOCK | THREAD` or `... is not VECTOR`.
	ConditionIs struct {
		Lhs *ChoiceInstance
		// Values and aliases; resolved by the builder.
		Values []*Ident
		Is     bool
	}

	// ConditionCode is an opaque host predicate.
	ConditionCode struct {
		Code   *Code
		Negate bool
	}

	// ConditionCmp compares a counter or integer choice to a host
	// expression, as in `require num_threads() <= "max_threads($fun)"`.
	ConditionCmp struct {
		Lhs *ChoiceInstance
		Op  CmpOp
		Rhs *Code
	}
)

// Pos returns the position of the condition.
func (c *ConditionIs) Pos() token.Pos { return c.Lhs.Pos() }

// Negated returns the complement of the condition.
func (c *ConditionIs) Negated() Condition {
	return &ConditionIs{Lhs: c.Lhs, Values: c.Values, Is: !c.Is}
}

// Pos returns the position of the condition.
func (c *ConditionCode) Pos() token.Pos { return c.Code.Pos() }

// Negated returns the complement of the condition.
func (c *ConditionCode) Negated() Condition {
	return &ConditionCode{Code: c.Code, Negate: !c.Negate}
}

// Pos returns the position of the condition.
func (c *ConditionCmp) Pos() token.Pos { return c.Lhs.Pos() }

// Negated returns the complement of the condition.
func (c *ConditionCmp) Negated() Condition {
	return &ConditionCmp{Lhs: c.Lhs, Op: c.Op.Negate(), Rhs: c.Rhs}
}
