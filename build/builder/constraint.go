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

// fragment is one compiled row of a constraint, keyed by the choice it
// restricts. Fragments with the same quantification merge into one
// filter.
type fragment struct {
	choice  string
	foralls []ir.BoundSet
	inputs  []ir.ChoiceInstance
	rule    ir.Rule
}

// instance resolves a choice reference against a scope, checking arity
// and argument sets.
func (b *bld) instance(ref *ast.ChoiceInstance, sc *scope) (ir.ChoiceInstance, *ir.Choice, bool) {
	choice, ok := b.desc.Choice(ref.Name.Name)
	if !ok {
		b.errorf(ref, "undefined choice %s", ref.Name.Name)
		return ir.ChoiceInstance{}, nil, false
	}
	if len(ref.Vars) != choice.Arguments().Len() {
		b.errorf(ref, "choice %s takes %d arguments, got %d",
			choice.Name(), choice.Arguments().Len(), len(ref.Vars))
		return ir.ChoiceInstance{}, nil, false
	}
	vars := make([]ir.Variable, len(ref.Vars))
	for i, id := range ref.Vars {
		idx, in := sc.lookup(id.Name)
		if !in {
			b.errorf(id, "undefined variable $%s", id.Name)
			return ir.ChoiceInstance{}, nil, false
		}
		if !sc.sets[idx].Set.IsSubsetOf(choice.Arguments().Set(i).Set) {
			b.errorf(id, "variable $%s ranges over %s, not an element of %s",
				id.Name, sc.sets[idx].Set.Name(), choice.Arguments().Set(i).Set.Name())
			return ir.ChoiceInstance{}, nil, false
		}
		vars[i] = sc.vars[idx]
	}
	return ir.ChoiceInstance{Choice: choice.Name(), Vars: vars}, choice, true
}

// Normalised clause literals.
type (
	enumLit struct {
		src    ast.Node
		inst   ir.ChoiceInstance
		choice *ir.Choice
		enum   *ir.Enum
		// values in positive form: the literal holds when the choice
		// takes one of them.
		values ir.ValueSet
	}

	codeLit struct {
		code   ir.Code
		negate bool
	}

	cmpLit struct {
		src    ast.Node
		inst   ir.ChoiceInstance
		choice *ir.Choice
		op     ir.CmpOp
		rhs    ir.Code
	}
)

// compileRequire lowers one universally quantified constraint.
func (b *bld) compileRequire(r *ast.Require) {
	sc := b.bindVars(r.Foralls, ir.VarForall, nil)
	if len(sc.names) != len(r.Foralls) {
		return
	}
	for _, clause := range r.Conjuncts {
		b.compileClause(r, sc, clause)
	}
}

// compileClause lowers one disjunction. Every enum occurrence becomes
// a filter fragment restricting its choice; a clause with no enum
// occurrence becomes a counter bound or an unpropagatable check.
func (b *bld) compileClause(r *ast.Require, sc *scope, clause []ast.Condition) {
	enums, codes, cmps, ok := b.normalise(sc, clause)
	if !ok {
		return
	}
	for _, lit := range enums {
		// A literal over the full value set is a tautology.
		if lit.values.Equal(lit.enum.All()) {
			return
		}
	}
	// Drop literals that can never hold.
	kept := enums[:0]
	for _, lit := range enums {
		if !lit.values.IsEmpty() {
			kept = append(kept, lit)
		}
	}
	enums = kept

	if len(enums) == 0 {
		b.compileUnpropagated(sc, codes, cmps)
		return
	}
	compiled := false
	for i := range enums {
		if b.compileFragment(sc, enums, codes, cmps, i) {
			compiled = true
		}
	}
	if !compiled {
		b.errorf(r, "constraint cannot be compiled into a monotone filter")
	}
}

// normalise splits a clause into positive enum literals (merged per
// instance), host predicates, and comparisons.
func (b *bld) normalise(sc *scope, clause []ast.Condition) ([]*enumLit, []codeLit, []*cmpLit, bool) {
	var enums []*enumLit
	var codes []codeLit
	var cmps []*cmpLit
	for _, cond := range clause {
		switch c := cond.(type) {
		case *ast.ConditionIs:
			inst, choice, ok := b.instance(c.Lhs, sc)
			if !ok {
				return nil, nil, nil, false
			}
			def, isEnum := choice.Def().(ir.EnumChoice)
			if !isEnum {
				b.errorf(c, "choice %s is not an enum", choice.Name())
				return nil, nil, nil, false
			}
			values, err := def.Enum.ValueSet(identNames(c.Values)...)
			if err != nil {
				b.errorf(c, "%s", err)
				return nil, nil, nil, false
			}
			if !c.Is {
				values = def.Enum.All().Minus(values)
			}
			merged := false
			for _, lit := range enums {
				if lit.inst.String() == inst.String() {
					lit.values = lit.values.Union(values)
					merged = true
					break
				}
			}
			if !merged {
				enums = append(enums, &enumLit{
					src:    c,
					inst:   inst,
					choice: choice,
					enum:   def.Enum,
					values: values,
				})
			}
		case *ast.ConditionCode:
			code, ok := b.code(c.Code, sc)
			if !ok {
				return nil, nil, nil, false
			}
			codes = append(codes, codeLit{code: code, negate: c.Negate})
		case *ast.ConditionCmp:
			inst, choice, ok := b.instance(c.Lhs, sc)
			if !ok {
				return nil, nil, nil, false
			}
			op := ir.CmpOp(c.Op)
			if !b.validCmp(c, choice, op) {
				return nil, nil, nil, false
			}
			rhs, ok := b.code(c.Rhs, sc)
			if !ok {
				return nil, nil, nil, false
			}
			cmps = append(cmps, &cmpLit{src: c, inst: inst, choice: choice, op: op, rhs: rhs})
		default:
			b.errorf(cond, "unknown condition %T", cond)
			return nil, nil, nil, false
		}
	}
	return enums, codes, cmps, true
}

// validCmp checks the comparison operators a choice kind supports.
func (b *bld) validCmp(src ast.Node, choice *ir.Choice, op ir.CmpOp) bool {
	switch def := choice.Def().(type) {
	case ir.EnumChoice:
		b.errorf(src, "enum choice %s cannot be compared; use `is`", choice.Name())
		return false
	case ir.CounterChoice:
		if op == ir.CmpNeq {
			b.errorf(src, "counter %s cannot be bounded by !=", choice.Name())
			return false
		}
		if def.Half && op != ir.CmpLt && op != ir.CmpLeq {
			b.errorf(src, "half counter %s only supports < and <=", choice.Name())
			return false
		}
		return true
	default:
		return true
	}
}

// compileUnpropagated lowers a clause with no enum occurrence: a lone
// counter comparison bounds the counter; anything else can only be
// checked for satisfiability.
func (b *bld) compileUnpropagated(sc *scope, codes []codeLit, cmps []*cmpLit) {
	if len(cmps) == 1 && len(codes) == 0 {
		lit := cmps[0]
		if _, isCounter := lit.choice.Def().(ir.CounterChoice); isCounter {
			b.desc.AddCounterRequire(&ir.CounterRequire{
				ForallSets: sc.sets,
				Counter:    lit.inst,
				Op:         lit.op,
				Rhs:        lit.rhs,
			})
			return
		}
	}
	var inputs []ir.ChoiceInstance
	var conds []ir.Test
	for _, lit := range codes {
		conds = append(conds, ir.CodeTest{Code: lit.code, Want: lit.negate})
	}
	for _, lit := range cmps {
		conds = append(conds, ir.CmpTest{
			Input: inputIndex(&inputs, lit.inst),
			Op:    lit.op.Negate(),
			Rhs:   lit.rhs,
		})
	}
	b.desc.AddStaticRequire(&ir.StaticRequire{
		ForallSets: sc.sets,
		Inputs:     inputs,
		Conditions: conds,
	})
}

// inputIndex interns a choice instance in an input list.
func inputIndex(inputs *[]ir.ChoiceInstance, inst ir.ChoiceInstance) int {
	for i, in := range *inputs {
		if in.String() == inst.String() {
			return i
		}
	}
	*inputs = append(*inputs, inst)
	return len(*inputs) - 1
}

// compileFragment builds the filter fragment restricting the target
// literal's choice: when every other literal is certainly false, the
// choice must take one of the target's values.
func (b *bld) compileFragment(sc *scope, enums []*enumLit, codes []codeLit, cmps []*cmpLit, target int) bool {
	lit := enums[target]
	remap, foralls, ok := b.targetMapping(sc, lit)
	if !ok {
		return false
	}
	adapt := func(inst ir.ChoiceInstance) ir.ChoiceInstance {
		vars := make([]ir.Variable, len(inst.Vars))
		for i, v := range inst.Vars {
			vars[i] = remap[v]
		}
		return ir.ChoiceInstance{Choice: inst.Choice, Vars: vars}
	}

	var inputs []ir.ChoiceInstance
	var conds []ir.Test
	for i, other := range enums {
		if i == target {
			continue
		}
		conds = append(conds, ir.EnumTest{
			Input:  inputIndex(&inputs, adapt(other.inst)),
			Values: other.values,
			Subset: false,
		})
	}
	for _, c := range codes {
		code := ir.NewCode(c.code.Text(), adaptVars(remap, c.code.Vars())...)
		conds = append(conds, ir.CodeTest{Code: code, Want: c.negate})
	}
	for _, c := range cmps {
		rhs := ir.NewCode(c.rhs.Text(), adaptVars(remap, c.rhs.Vars())...)
		conds = append(conds, ir.CmpTest{
			Input: inputIndex(&inputs, adapt(c.inst)),
			Op:    c.op.Negate(),
			Rhs:   rhs,
		})
	}
	frag := &fragment{
		choice:  lit.choice.Name(),
		foralls: foralls,
		inputs:  inputs,
		rule:    ir.Rule{Conditions: conds, Alternatives: lit.values},
	}
	b.fragments[frag.choice] = append(b.fragments[frag.choice], frag)
	if lit.choice.Arguments().IsSymmetric() {
		b.fragments[frag.choice] = append(b.fragments[frag.choice], invertFragment(frag, lit))
	}
	return true
}

func adaptVars(remap map[ir.Variable]ir.Variable, vars []ir.Variable) []ir.Variable {
	out := make([]ir.Variable, len(vars))
	for i, v := range vars {
		out[i] = remap[v]
	}
	return out
}

// targetMapping rebinds the constraint variables to the point of view
// of the target: the variables of the target reference become the
// choice arguments, the rest stay universally quantified.
func (b *bld) targetMapping(sc *scope, lit *enumLit) (map[ir.Variable]ir.Variable, []ir.BoundSet, bool) {
	remap := make(map[ir.Variable]ir.Variable, len(sc.vars))
	isTarget := make(map[ir.Variable]bool, len(lit.inst.Vars))
	for i, v := range lit.inst.Vars {
		if isTarget[v] {
			// The same variable twice cannot be rebound to two
			// arguments.
			return nil, nil, false
		}
		isTarget[v] = true
		remap[v] = ir.Arg(i)
	}
	// A target argument quantified by a non-argument variable cannot
	// be enumerated from the target's point of view.
	for _, v := range lit.inst.Vars {
		i := varIndex(sc, v)
		if p := sc.sets[i].Param; p != nil && !isTarget[*p] {
			return nil, nil, false
		}
	}
	var foralls []ir.BoundSet
	next := 0
	for j, v := range sc.vars {
		if isTarget[v] {
			continue
		}
		remap[v] = ir.Forall(next)
		next++
		bs := sc.sets[j]
		if bs.Param != nil {
			p := remap[*bs.Param]
			bs = ir.BoundSet{Set: bs.Set, Param: &p}
		}
		foralls = append(foralls, bs)
	}
	return remap, foralls, true
}

func varIndex(sc *scope, v ir.Variable) int {
	for i, sv := range sc.vars {
		if sv == v {
			return i
		}
	}
	return -1
}

// invertFragment returns the fragment seen through the argument swap
// of a symmetric target: references swap the two arguments, and the
// kept values go through the enum involution.
func invertFragment(f *fragment, lit *enumLit) *fragment {
	swap := func(v ir.Variable) ir.Variable {
		if v.Kind == ir.VarArg && v.Index < 2 {
			return ir.Arg(1 - v.Index)
		}
		return v
	}
	inputs := make([]ir.ChoiceInstance, len(f.inputs))
	for i, in := range f.inputs {
		vars := make([]ir.Variable, len(in.Vars))
		for j, v := range in.Vars {
			vars[j] = swap(v)
		}
		inputs[i] = ir.ChoiceInstance{Choice: in.Choice, Vars: vars}
	}
	rule := ir.Rule{
		Conditions:   f.rule.Conditions,
		Alternatives: lit.enum.Inverse(f.rule.Alternatives),
	}
	// Code tests embed their own variables; swap them too.
	conds := make([]ir.Test, len(f.rule.Conditions))
	for i, t := range f.rule.Conditions {
		switch test := t.(type) {
		case ir.CodeTest:
			conds[i] = ir.CodeTest{
				Code: ir.NewCode(test.Code.Text(), swapVars(test.Code.Vars())...),
				Want: test.Want,
			}
		case ir.CmpTest:
			conds[i] = ir.CmpTest{
				Input: test.Input,
				Op:    test.Op,
				Rhs:   ir.NewCode(test.Rhs.Text(), swapVars(test.Rhs.Vars())...),
			}
		default:
			conds[i] = t
		}
	}
	rule.Conditions = conds
	return &fragment{
		choice:  f.choice,
		foralls: f.foralls,
		inputs:  inputs,
		rule:    rule,
	}
}

func swapVars(vars []ir.Variable) []ir.Variable {
	out := make([]ir.Variable, len(vars))
	for i, v := range vars {
		if v.Kind == ir.VarArg && v.Index < 2 {
			out[i] = ir.Arg(1 - v.Index)
		} else {
			out[i] = v
		}
	}
	return out
}
