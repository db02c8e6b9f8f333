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
	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/build/ir"
)

// declareEnum registers an enum declaration and its choice. Value and
// alias requires are rewritten into plain requires conditioned on the
// choice taking the guarded values.
func (b *bld) declareEnum(def *ast.EnumDef) {
	enum := ir.NewEnum(def.Name.Name, def.Doc)
	for _, v := range def.Values {
		if err := enum.AddValue(v.Name.Name, v.Doc); err != nil {
			b.errorf(v, "%s", err)
		}
	}
	for _, a := range def.Aliases {
		if err := enum.AddAlias(a.Name.Name, identNames(a.Values)...); err != nil {
			b.errorf(a, "%s", err)
		}
	}
	if def.AntiSymmetric != nil {
		mapping := make([][2]string, len(def.AntiSymmetric))
		for i, m := range def.AntiSymmetric {
			mapping[i] = [2]string{m.From.Name, m.To.Name}
		}
		if err := enum.SetInverse(mapping); err != nil {
			b.errorf(def, "%s", err)
		}
	}
	if err := b.desc.AddEnum(enum); err != nil {
		b.errorf(def, "%s", err)
		return
	}

	args, ok := b.choiceArgs(def, def.Vars, def.Symmetric || def.AntiSymmetric != nil, def.AntiSymmetric != nil)
	if !ok {
		return
	}
	choice := ir.NewChoice(def.Name.Name, def.Doc, args, ir.EnumChoice{Enum: enum})
	if err := b.desc.AddChoice(choice); err != nil {
		b.errorf(def, "%s", err)
		return
	}

	for _, v := range def.Values {
		b.guardedRequires(def, v.Name.Name, v.Requires)
	}
	for _, a := range def.Aliases {
		b.guardedRequires(def, a.Name.Name, a.Requires)
	}
}

// choiceArgs resolves the argument tuple of a choice declaration.
func (b *bld) choiceArgs(def ast.Node, vars []*ast.VarDef, symmetric, inverse bool) (*ir.Arguments, bool) {
	sc := b.bindVars(vars, ir.VarArg, nil)
	if len(sc.names) != len(vars) {
		return nil, false
	}
	if !symmetric {
		return ir.PlainArgs(sc.names, sc.sets), true
	}
	if len(vars) != 2 {
		b.errorf(def, "a symmetric choice takes exactly two arguments")
		return nil, false
	}
	if sc.sets[0].Set != sc.sets[1].Set || sc.sets[0].Param != nil || sc.sets[1].Param != nil {
		b.errorf(def, "the arguments of a symmetric choice range over one plain set")
		return nil, false
	}
	return ir.SymmetricArgs([2]string{sc.names[0], sc.names[1]}, sc.sets[0].Set, inverse), true
}

// guardedRequires rewrites the requires of an enum value: each clause
// holds whenever the choice takes the value, so the value's complement
// joins every clause as an escape literal.
func (b *bld) guardedRequires(def *ast.EnumDef, value string, requires []*ast.Require) {
	for _, r := range requires {
		escape := &ast.ConditionIs{
			Lhs: &ast.ChoiceInstance{
				Name: def.Name,
				Vars: varIdents(def.Vars),
			},
			Values: []*ast.Ident{{NamePos: def.Pos(), Name: value}},
			Is:     false,
		}
		conjuncts := make([][]ast.Condition, len(r.Conjuncts))
		for i, clause := range r.Conjuncts {
			conjuncts[i] = append([]ast.Condition{escape}, clause...)
		}
		foralls := append(append([]*ast.VarDef{}, def.Vars...), r.Foralls...)
		b.requires = append(b.requires, &ast.Require{
			RequirePos: r.RequirePos,
			Foralls:    foralls,
			Conjuncts:  conjuncts,
		})
	}
}

func varIdents(vars []*ast.VarDef) []*ast.Ident {
	ids := make([]*ast.Ident, len(vars))
	for i, v := range vars {
		ids[i] = v.Name
	}
	return ids
}

// declareInteger registers an integer choice.
func (b *bld) declareInteger(def *ast.IntegerDef) {
	sc := b.bindVars(def.Vars, ir.VarArg, nil)
	if len(sc.names) != len(def.Vars) {
		return
	}
	universe, ok := b.code(def.Universe, sc)
	if !ok {
		return
	}
	if universe.IsZero() {
		b.errorf(def, "integer choice %s has no universe", def.Name.Name)
		return
	}
	choice := ir.NewChoice(def.Name.Name, def.Doc,
		ir.PlainArgs(sc.names, sc.sets), ir.IntegerChoice{Universe: universe})
	if err := b.desc.AddChoice(choice); err != nil {
		b.errorf(def, "%s", err)
	}
}
