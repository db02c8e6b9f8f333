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
	"go/token"

	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/build/ir"
)

// declareSet registers a set declaration and, for quotient sets,
// synthesises the membership choice, the requires tying it to the
// equivalence, and the add-to-set trigger.
func (b *bld) declareSet(def *ast.SetDef) {
	if _, dup := b.desc.Set(def.Name.Name); dup {
		b.errorf(def, "set %s declared twice", def.Name.Name)
		return
	}
	sb := ir.SetBuilder{Name: def.Name.Name, VarPrefix: def.VarPrefix}
	sc := &scope{}
	if def.Arg != nil {
		argSet, ok := b.desc.Set(def.Arg.Set.Name.Name)
		if !ok {
			b.errorf(def.Arg.Set, "undefined set %s", def.Arg.Set.Name.Name)
			return
		}
		sb.Arg = argSet
		sc.names = append(sc.names, def.Arg.Name.Name)
		sc.vars = append(sc.vars, ir.Arg(0))
		sc.sets = append(sc.sets, ir.BoundSet{Set: argSet})
	}
	if def.Superset != nil {
		super, ok := b.desc.Set(def.Superset.Name.Name)
		if !ok {
			b.errorf(def.Superset, "undefined set %s", def.Superset.Name.Name)
			return
		}
		sb.Superset = super
	}
	for _, d := range def.Disjoint {
		if _, ok := b.desc.Set(d.Name); !ok {
			b.errorf(d, "undefined set %s", d.Name)
			continue
		}
		sb.Disjoint = append(sb.Disjoint, d.Name)
	}
	sb.ItemType = b.rawCode(def.ItemType)
	sb.IDType = b.rawCode(def.IDType)
	sb.ItemGetter = b.rawCode(def.ItemGetter)
	sb.IDGetter = b.rawCode(def.IDGetter)
	sb.Iterator = b.rawCode(def.Iterator)
	sb.FromSuperset = b.rawCode(def.FromSuperset)
	sb.NewObjs = b.rawCode(def.NewObjs)
	sb.AddToSet = b.rawCode(def.AddToSet)
	if def.Reverse != nil {
		if sb.Superset == nil {
			b.errorf(def.Reverse, "set %s declares a reverse lookup without a superset", def.Name.Name)
		} else {
			revSet, ok := b.desc.Set(def.Reverse.Var.Set.Name.Name)
			if !ok {
				b.errorf(def.Reverse.Var.Set, "undefined set %s", def.Reverse.Var.Set.Name.Name)
				return
			}
			sb.Reverse = &ir.Reverse{Var: revSet, Expr: b.rawCode(def.Reverse.Expr)}
		}
	}
	if def.Quotient != nil {
		q, ok := b.quotientOf(def, sc)
		if !ok {
			return
		}
		sb.Quotient = q
	}
	if err := b.desc.AddSet(sb.Build()); err != nil {
		b.errorf(def, "%s", err)
	}
}

// rawCode builds a snippet with no specification variables: set body
// snippets only embed host variables, which the core does not track.
func (b *bld) rawCode(c *ast.Code) ir.Code {
	if c == nil {
		return ir.Code{}
	}
	return ir.NewCode(c.Text)
}

// quotientOf lowers a quotient declaration: a boolean membership
// choice constrained to follow the equivalence, and a trigger firing
// the add-to-set hook once membership is certain.
func (b *bld) quotientOf(def *ast.SetDef, argScope *scope) (*ir.Quotient, bool) {
	q := def.Quotient
	of, ok := b.desc.Set(q.Var.Set.Name.Name)
	if !ok {
		b.errorf(q.Var.Set, "undefined set %s", q.Var.Set.Name.Name)
		return nil, false
	}
	if def.AddToSet == nil {
		b.errorf(def, "quotient set %s has no add_to_set hook", def.Name.Name)
		return nil, false
	}
	equivEnum, equivValues, ok := b.equivCondition(q)
	if !ok {
		return nil, false
	}

	// The membership choice spans the quotient parameter, if any, and
	// the divided set.
	var names []string
	var sets []ir.BoundSet
	varDefs := []*ast.VarDef{}
	if def.Arg != nil {
		names = append(names, def.Arg.Name.Name)
		sets = append(sets, argScope.sets[0])
		varDefs = append(varDefs, def.Arg)
	}
	names = append(names, q.Var.Name.Name)
	sets = append(sets, ir.BoundSet{Set: of})
	varDefs = append(varDefs, q.Var)

	boolEnum, _ := b.desc.Enum(ir.BoolEnum)
	repr := ir.NewChoice(q.Repr.Name, "membership of "+def.Name.Name,
		ir.PlainArgs(names, sets), ir.EnumChoice{Enum: boolEnum})
	if err := b.desc.AddChoice(repr); err != nil {
		b.errorf(q.Repr, "%s", err)
		return nil, false
	}

	// Membership follows the equivalence in both directions.
	reprIs := func(value string) ast.Condition {
		return &ast.ConditionIs{
			Lhs: &ast.ChoiceInstance{
				Name: &ast.Ident{NamePos: q.Repr.NamePos, Name: q.Repr.Name},
				Vars: idents(q.Repr.NamePos, names),
			},
			Values: []*ast.Ident{{NamePos: q.Repr.NamePos, Name: value}},
			Is:     true,
		}
	}
	b.requires = append(b.requires, &ast.Require{
		RequirePos: def.Pos(),
		Foralls:    varDefs,
		Conjuncts: [][]ast.Condition{
			{q.Equiv.Negated(), reprIs(ir.BoolTrue)},
			{q.Equiv, reprIs(ir.BoolFalse)},
		},
	})

	// Fire the add-to-set hook once the equivalence is certain.
	b.triggers = append(b.triggers, &ast.TriggerDef{
		TriggerPos: def.Pos(),
		Foralls:    varDefs,
		Code: &ast.Code{
			CodePos: def.AddToSet.CodePos,
			Text:    def.AddToSet.Text,
			Vars:    idents(def.AddToSet.CodePos, names),
		},
		Conditions: []ast.Condition{q.Equiv},
	})

	return &ir.Quotient{
		Of:          of,
		Equiv:       equivEnum,
		EquivValues: equivValues,
		Repr:        q.Repr.Name,
	}, true
}

// equivCondition resolves the equivalence test of a quotient.
func (b *bld) equivCondition(q *ast.QuotientDef) (string, ir.ValueSet, bool) {
	name := q.Equiv.Lhs.Name.Name
	choice, ok := b.desc.Choice(name)
	if !ok {
		b.errorf(q.Equiv, "undefined choice %s", name)
		return "", ir.ValueSet{}, false
	}
	def, ok := choice.Def().(ir.EnumChoice)
	if !ok {
		b.errorf(q.Equiv, "choice %s is not an enum", name)
		return "", ir.ValueSet{}, false
	}
	values, err := def.Enum.ValueSet(identNames(q.Equiv.Values)...)
	if err != nil {
		b.errorf(q.Equiv, "%s", err)
		return "", ir.ValueSet{}, false
	}
	if !q.Equiv.Is {
		values = def.Enum.All().Minus(values)
	}
	return name, values, true
}

func idents(pos token.Pos, names []string) []*ast.Ident {
	ids := make([]*ast.Ident, len(names))
	for i, n := range names {
		ids[i] = &ast.Ident{NamePos: pos, Name: n}
	}
	return ids
}

func identNames(ids []*ast.Ident) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return names
}
