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

// declareCounter registers a counter choice. The counter aggregates,
// with its monoid, one contribution per tuple of its forall variables;
// each contribution is guarded by an increment condition.
//
// When the `when` clause is a single membership test covering every
// forall variable, that test is the increment directly. Otherwise a
// boolean increment choice is synthesised and constrained to be TRUE
// exactly when the conditions hold.
func (b *bld) declareCounter(def *ast.CounterDef) {
	argScope := b.bindVars(def.Vars, ir.VarArg, nil)
	if len(argScope.names) != len(def.Vars) {
		return
	}
	body := def.Body
	fullScope := b.bindVars(body.IterVars, ir.VarForall, argScope)
	if len(fullScope.names) != len(def.Vars)+len(body.IterVars) {
		return
	}
	iterSets := fullScope.sets[len(def.Vars):]

	base, ok := b.code(body.Base, argScope)
	if !ok {
		return
	}
	incr, incrCondition, ok := b.increment(def, fullScope)
	if !ok {
		return
	}
	value, ok := b.counterValue(def, fullScope)
	if !ok {
		return
	}

	kind := ir.CounterAdd
	if body.Kind == ast.CounterMul {
		kind = ir.CounterMul
	}
	choice := ir.NewChoice(def.Name.Name, def.Doc,
		ir.PlainArgs(argScope.names, argScope.sets),
		ir.CounterChoice{
			Kind:          kind,
			Half:          def.Half,
			Base:          base,
			IterSets:      iterSets,
			Incr:          incr,
			IncrCondition: incrCondition,
			Value:         value,
		})
	if err := b.desc.AddChoice(choice); err != nil {
		b.errorf(def, "%s", err)
	}
}

// increment resolves the increment condition of a counter.
func (b *bld) increment(def *ast.CounterDef, sc *scope) (ir.ChoiceInstance, ir.ValueSet, bool) {
	body := def.Body
	if len(body.Conditions) == 1 {
		if is, ok := body.Conditions[0].(*ast.ConditionIs); ok {
			if incr, cond, ok := b.directIncrement(def, is, sc); ok {
				return incr, cond, true
			}
		}
	}
	return b.synthIncrement(def, sc)
}

// directIncrement uses the tested choice itself as the increment when
// the test binds every forall variable of the counter.
func (b *bld) directIncrement(def *ast.CounterDef, is *ast.ConditionIs, sc *scope) (ir.ChoiceInstance, ir.ValueSet, bool) {
	inst, choice, ok := b.instance(is.Lhs, sc)
	if !ok {
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	enumDef, isEnum := choice.Def().(ir.EnumChoice)
	if !isEnum {
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	foralls := make(map[int]bool)
	for _, v := range inst.Vars {
		if v.Kind == ir.VarForall {
			foralls[v.Index] = true
		}
	}
	if len(foralls) != len(def.Body.IterVars) {
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	values, err := enumDef.Enum.ValueSet(identNames(is.Values)...)
	if err != nil {
		b.errorf(is, "%s", err)
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	if !is.Is {
		values = enumDef.Enum.All().Minus(values)
	}
	return inst, values, true
}

// synthIncrement creates the boolean increment choice of a counter and
// the requires making it equivalent to the `when` conditions.
func (b *bld) synthIncrement(def *ast.CounterDef, sc *scope) (ir.ChoiceInstance, ir.ValueSet, bool) {
	name := "increment_" + def.Name.Name
	allVars := append(append([]*ast.VarDef{}, def.Vars...), def.Body.IterVars...)
	incrScope := b.bindVars(allVars, ir.VarArg, nil)
	if len(incrScope.names) != len(allVars) {
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	boolEnum, _ := b.desc.Enum(ir.BoolEnum)
	incrChoice := ir.NewChoice(name, "increment of "+def.Name.Name,
		ir.PlainArgs(incrScope.names, incrScope.sets), ir.EnumChoice{Enum: boolEnum})
	if err := b.desc.AddChoice(incrChoice); err != nil {
		b.errorf(def, "%s", err)
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}

	incrRef := &ast.ChoiceInstance{
		Name: &ast.Ident{NamePos: def.Pos(), Name: name},
		Vars: varIdents(allVars),
	}
	isFalse := &ast.ConditionIs{
		Lhs:    incrRef,
		Values: []*ast.Ident{{NamePos: def.Pos(), Name: ir.BoolFalse}},
		Is:     true,
	}
	// TRUE implies every condition; all conditions imply TRUE.
	var conjuncts [][]ast.Condition
	for _, cond := range def.Body.Conditions {
		conjuncts = append(conjuncts, []ast.Condition{cond, isFalse})
	}
	last := []ast.Condition{isFalse.Negated()}
	for _, cond := range def.Body.Conditions {
		last = append(last, cond.Negated())
	}
	conjuncts = append(conjuncts, last)
	b.requires = append(b.requires, &ast.Require{
		RequirePos: def.Pos(),
		Foralls:    allVars,
		Conjuncts:  conjuncts,
	})

	vars := make([]ir.Variable, 0, len(allVars))
	for i := range def.Vars {
		vars = append(vars, ir.Arg(i))
	}
	for i := range def.Body.IterVars {
		vars = append(vars, ir.Forall(i))
	}
	cond, err := boolEnum.ValueSet(ir.BoolTrue)
	if err != nil {
		b.errorf(def, "%s", err)
		return ir.ChoiceInstance{}, ir.ValueSet{}, false
	}
	return ir.ChoiceInstance{Choice: name, Vars: vars}, cond, true
}

// counterValue resolves the contributed amount of a counter.
func (b *bld) counterValue(def *ast.CounterDef, sc *scope) (ir.CounterVal, bool) {
	switch v := def.Body.Value.(type) {
	case *ast.CounterValCode:
		code, ok := b.code(v.Code, sc)
		if !ok {
			return nil, false
		}
		return ir.CounterValCode{Code: code}, true
	case *ast.CounterValChoice:
		inst, choice, ok := b.instance(v.Counter, sc)
		if !ok {
			return nil, false
		}
		callee, isCounter := choice.Def().(ir.CounterChoice)
		if !isCounter {
			b.errorf(v, "counter %s sums choice %s, which is not a counter",
				def.Name.Name, choice.Name())
			return nil, false
		}
		if callee.Half && !def.Half {
			b.errorf(v, "counter %s cannot sum on counter %s, which exposes less information",
				def.Name.Name, choice.Name())
			return nil, false
		}
		if def.Body.Kind == ast.CounterMul && callee.Kind == ir.CounterAdd {
			b.errorf(v, "counter %s cannot multiply the sum %s", def.Name.Name, choice.Name())
			return nil, false
		}
		b.counterValues = append(b.counterValues, counterValueRef{
			src:  v,
			from: def.Name.Name,
			to:   choice.Name(),
		})
		return ir.CounterValCounter{Counter: inst}, true
	default:
		b.errorf(def, "counter %s has no value", def.Name.Name)
		return nil, false
	}
}

// checkCounterCycles rejects counters whose values depend on
// themselves.
func (b *bld) checkCounterCycles() {
	edges := make(map[string][]string)
	for _, ref := range b.counterValues {
		edges[ref.from] = append(edges[ref.from], ref.to)
	}
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int)
	var visit func(name string) bool
	visit = func(name string) bool {
		switch colour[name] {
		case grey:
			return false
		case black:
			return true
		}
		colour[name] = grey
		for _, next := range edges[name] {
			if !visit(next) {
				return false
			}
		}
		colour[name] = black
		return true
	}
	for _, ref := range b.counterValues {
		if !visit(ref.from) {
			b.errorf(ref.src, "cyclic counter definition involving %s", ref.from)
			return
		}
	}
}
