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

// Package builder compiles a parsed specification into an IR
// description.
//
// The compilation runs in passes over the parsed items:
//  1. declarations: sets, enums, integer and counter choices are
//     registered, in declaration order. Quotient sets and counters
//     synthesise their membership and increment choices here, together
//     with the requires tying them to their definition.
//  2. constraints: every require is lowered, clause by clause, into
//     filter fragments keyed by the choice instance they restrict.
//  3. filters: fragments with the same quantification are merged,
//     their truth tables simplified, and the result attached to the
//     choices.
//  4. triggers and checks: trigger guards are compiled, and counter
//     definitions are checked for cycles.
//
// Errors are accumulated with their source position across a pass;
// a pass only runs if the previous passes reported none.
package builder

import (
	"go/token"

	"github.com/sx-org/sx/base/iter"
	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/build/fmterr"
	"github.com/sx-org/sx/build/ir"
)

// Build compiles a parsed specification. The returned description is
// immutable and may be shared by any number of stores.
func Build(fset *token.FileSet, spec *ast.Spec) (*ir.Desc, error) {
	b := &bld{
		fset: fset,
		desc: ir.NewDesc(),
	}
	boolEnum := ir.NewBoolEnum()
	if err := b.desc.AddEnum(boolEnum); err != nil {
		return nil, err
	}

	b.declare(spec)
	if err := b.errs.ToError(); err != nil {
		return nil, err
	}
	b.constraints()
	if err := b.errs.ToError(); err != nil {
		return nil, err
	}
	b.attachFilters()
	b.compileTriggers()
	b.checkCounterCycles()
	if err := b.errs.ToError(); err != nil {
		return nil, err
	}
	return b.desc, nil
}

type bld struct {
	fset *token.FileSet
	desc *ir.Desc
	errs fmterr.Errors

	// requires queues every constraint to compile: the declared ones
	// plus those synthesised by enum values, quotient sets and counter
	// increments.
	requires []*ast.Require
	// triggers queues the declared and synthesised triggers.
	triggers []*ast.TriggerDef
	// fragments collects compiled filter fragments per choice name.
	fragments map[string][]*fragment
	// counterValues records counter-on-counter value references for
	// the cycle check, by declaration position.
	counterValues []counterValueRef
}

type counterValueRef struct {
	src      ast.Node
	from, to string
}

func (b *bld) errorf(src fmterr.Poser, format string, args ...any) {
	b.errs.Append(fmterr.Errorf(b.fset, src, format, args...))
}

// declare registers every declaration, in order. Items only reference
// previously declared items; requires and triggers are queued for the
// later passes.
func (b *bld) declare(spec *ast.Spec) {
	for item := range iter.All(spec.Items) {
		switch it := item.(type) {
		case *ast.SetDef:
			b.declareSet(it)
		case *ast.EnumDef:
			b.declareEnum(it)
		case *ast.IntegerDef:
			b.declareInteger(it)
		case *ast.CounterDef:
			b.declareCounter(it)
		case *ast.Require:
			b.requires = append(b.requires, it)
		case *ast.TriggerDef:
			b.triggers = append(b.triggers, it)
		default:
			b.errorf(item, "unknown specification item %T", item)
		}
	}
}

// constraints lowers every queued require into filter fragments.
func (b *bld) constraints() {
	b.fragments = make(map[string][]*fragment)
	for _, r := range b.requires {
		b.compileRequire(r)
	}
}

// ----------------------------------------------------------------------------
// Scopes.

// scope binds specification variable names to IR variables and their
// sets.
type scope struct {
	names []string
	vars  []ir.Variable
	sets  []ir.BoundSet
}

func (sc *scope) lookup(name string) (int, bool) {
	for i, n := range sc.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (sc *scope) varOf(name string) (ir.Variable, bool) {
	i, ok := sc.lookup(name)
	if !ok {
		return ir.Variable{}, false
	}
	return sc.vars[i], true
}

// bindVars resolves variable definitions into a scope. The kind
// decides whether the variables are choice arguments or foralls.
func (b *bld) bindVars(defs []*ast.VarDef, kind ir.VarKind, base *scope) *scope {
	sc := &scope{}
	if base != nil {
		sc.names = append(sc.names, base.names...)
		sc.vars = append(sc.vars, base.vars...)
		sc.sets = append(sc.sets, base.sets...)
	}
	next := 0
	for _, v := range sc.vars {
		if v.Kind == kind {
			next++
		}
	}
	for _, def := range defs {
		if _, dup := sc.lookup(def.Name.Name); dup {
			b.errorf(def, "variable %s defined twice", def.Name.Name)
			continue
		}
		bound, ok := b.resolveSetRef(def.Set, sc)
		if !ok {
			continue
		}
		v := ir.Variable{Kind: kind, Index: next}
		next++
		sc.names = append(sc.names, def.Name.Name)
		sc.vars = append(sc.vars, v)
		sc.sets = append(sc.sets, bound)
	}
	return sc
}

// resolveSetRef resolves a set reference and its optional parameter
// against a scope.
func (b *bld) resolveSetRef(ref *ast.SetRef, sc *scope) (ir.BoundSet, bool) {
	set, ok := b.desc.Set(ref.Name.Name)
	if !ok {
		b.errorf(ref, "undefined set %s", ref.Name.Name)
		return ir.BoundSet{}, false
	}
	bound := ir.BoundSet{Set: set}
	if ref.Arg != nil {
		if set.Arg() == nil {
			b.errorf(ref.Arg, "set %s takes no parameter", set.Name())
			return ir.BoundSet{}, false
		}
		v, ok := sc.varOf(ref.Arg.Name)
		if !ok {
			b.errorf(ref.Arg, "undefined variable $%s", ref.Arg.Name)
			return ir.BoundSet{}, false
		}
		i, _ := sc.lookup(ref.Arg.Name)
		if !sc.sets[i].Set.IsSubsetOf(set.Arg()) {
			b.errorf(ref.Arg, "variable $%s is not an element of %s", ref.Arg.Name, set.Arg().Name())
			return ir.BoundSet{}, false
		}
		bound.Param = &v
	} else if set.Arg() != nil {
		b.errorf(ref, "set %s requires a parameter", set.Name())
		return ir.BoundSet{}, false
	}
	return bound, true
}

// code resolves the variables of a snippet against a scope.
func (b *bld) code(c *ast.Code, sc *scope) (ir.Code, bool) {
	if c == nil {
		return ir.Code{}, true
	}
	vars := make([]ir.Variable, 0, len(c.Vars))
	ok := true
	for _, id := range c.Vars {
		v, in := sc.varOf(id.Name)
		if !in {
			b.errorf(id, "undefined variable $%s", id.Name)
			ok = false
			continue
		}
		vars = append(vars, v)
	}
	return ir.NewCode(c.Text, vars...), ok
}
