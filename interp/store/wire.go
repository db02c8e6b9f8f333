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

package store

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/domain"
)

// init instantiates every choice over the IR instance, wires the
// dependency index, enqueues everything, and propagates to the initial
// fixpoint.
func (s *Store) init() error {
	for choice := range s.desc.Choices() {
		if _, ok := choice.Def().(ir.IntegerChoice); !ok {
			continue
		}
		ints, err := s.cat.IntegerOps()
		if err != nil {
			return err
		}
		s.ints = ints
		break
	}
	if err := s.instantiateAll(); err != nil {
		return err
	}
	if err := s.wireAll(); err != nil {
		return err
	}
	return s.propagate()
}

// grow processes a new-object wave: instantiate choices over the new
// elements, wire them, and re-enqueue every item so that rules guarded
// by grown sets are re-audited.
func (s *Store) grow(objs []catalogue.NewObj) error {
	if len(objs) == 0 {
		return nil
	}
	if err := s.instantiateAll(); err != nil {
		return err
	}
	if err := s.wireAll(); err != nil {
		return err
	}
	for _, it := range s.items {
		s.list.push(it)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Instantiation.

// setElems enumerates a bound set, resolving its parameter against the
// already bound variables.
func (s *Store) setElems(b ir.BoundSet, args, foralls []catalogue.ObjectID) ([]catalogue.ObjectID, error) {
	bind, err := s.cat.Set(b.Set.Name())
	if err != nil {
		return nil, err
	}
	parent := catalogue.NoParent
	if b.Param != nil {
		parent = objsFor([]ir.Variable{*b.Param}, args, foralls)[0]
	}
	return bind.Iterate(s.inst, parent), nil
}

// argTuples enumerates the argument tuples of a choice. A symmetric
// choice is instantiated on the strict lower triangle of its set.
func (s *Store) argTuples(choice *ir.Choice) ([][]catalogue.ObjectID, error) {
	args := choice.Arguments()
	if args.IsSymmetric() {
		elems, err := s.setElems(args.Set(0), nil, nil)
		if err != nil {
			return nil, err
		}
		var tuples [][]catalogue.ObjectID
		for i, a := range elems {
			for _, b := range elems[i+1:] {
				l, r := a, b
				if l > r {
					l, r = r, l
				}
				tuples = append(tuples, []catalogue.ObjectID{l, r})
			}
		}
		return tuples, nil
	}
	return s.boundTuples(args.Sets(), nil, true)
}

// boundTuples enumerates the cartesian product of bound sets, where a
// later set may be parameterised by an earlier variable. With asArgs
// set the tuple under construction binds the argument variables;
// otherwise it binds foralls below the given arguments.
func (s *Store) boundTuples(sets []ir.BoundSet, args []catalogue.ObjectID, asArgs bool) ([][]catalogue.ObjectID, error) {
	tuples := [][]catalogue.ObjectID{nil}
	for _, b := range sets {
		var next [][]catalogue.ObjectID
		for _, tuple := range tuples {
			boundArgs, foralls := args, tuple
			if asArgs {
				boundArgs, foralls = tuple, nil
			}
			elems, err := s.setElems(b, boundArgs, foralls)
			if err != nil {
				return nil, err
			}
			for _, el := range elems {
				t := make([]catalogue.ObjectID, len(tuple)+1)
				copy(t, tuple)
				t[len(tuple)] = el
				next = append(next, t)
			}
		}
		tuples = next
	}
	return tuples, nil
}

// instantiateAll creates an instance for every choice and satisfying
// argument tuple. Existing instances are kept untouched, so the pass
// is re-run as object sets grow.
func (s *Store) instantiateAll() error {
	for choice := range s.desc.Choices() {
		tuples, err := s.argTuples(choice)
		if err != nil {
			return err
		}
		for _, tuple := range tuples {
			if err := s.createInstance(choice, tuple); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) createInstance(choice *ir.Choice, args []catalogue.ObjectID) error {
	key, _ := s.resolve(choice, args)
	if s.domains.Has(key) {
		return nil
	}
	inst := &instance{choice: choice, args: args}
	switch def := choice.Def().(type) {
	case ir.EnumChoice:
		inst.enum = def.Enum.All()
	case ir.IntegerChoice:
		universe, err := s.cat.Universe(def.Universe)
		if err != nil {
			return err
		}
		inst.integer = universe(s.inst, objsFor(def.Universe.Vars(), args, nil))
	case ir.CounterChoice:
		base := def.Kind.Identity()
		if !def.Base.IsZero() {
			amount, err := s.cat.Amount(def.Base)
			if err != nil {
				return err
			}
			base = amount(s.inst, objsFor(def.Base.Vars(), args, nil))
		}
		inst.counter = &counterState{
			kind:        def.Kind,
			half:        def.Half,
			base:        base,
			bounds:      domain.FullRange(),
			limit:       domain.FullRange(),
			contribKeys: make(map[string]bool),
		}
	default:
		return errors.Errorf("choice %s: unknown definition", choice.Name())
	}
	s.domains.Store(key, inst)
	return nil
}

// ----------------------------------------------------------------------------
// Dependency wiring.

// resolveInput resolves a referenced choice instance to its canonical
// key and read orientation.
func (s *Store) resolveInput(ref ir.ChoiceInstance, args, foralls []catalogue.ObjectID) (inputRef, error) {
	choice, ok := s.desc.Choice(ref.Choice)
	if !ok {
		return inputRef{}, errors.Errorf("undefined choice %s", ref.Choice)
	}
	objs := objsFor(ref.Vars, args, foralls)
	key, swapped := s.resolve(choice, objs)
	in := inputRef{key: key, inverted: swapped && choice.Arguments().IsInverse()}
	if def, ok := choice.Def().(ir.EnumChoice); ok {
		in.enum = def.Enum
	}
	return in, nil
}

// register adds an item to the dependency index under every input it
// reads, and enqueues it for its first evaluation.
func (s *Store) register(it workItem, reads []Key) {
	if s.registered[it.itemKey()] {
		s.list.push(it)
		return
	}
	s.registered[it.itemKey()] = true
	s.items = append(s.items, it)
	seen := make(map[Key]bool, len(reads))
	for _, key := range reads {
		if seen[key] {
			continue
		}
		seen[key] = true
		s.deps[key] = append(s.deps[key], it)
	}
	s.list.push(it)
}

// wireAll wires filters, counters, counter requires and triggers.
// Wiring is idempotent: items already registered are only re-enqueued.
func (s *Store) wireAll() error {
	for key, inst := range s.domains.Iter() {
		if err := s.wireInstance(key, inst); err != nil {
			return err
		}
	}
	for _, req := range s.desc.CounterRequires() {
		if err := s.wireCounterRequire(req); err != nil {
			return err
		}
	}
	if err := s.wireStaticRequires(); err != nil {
		return err
	}
	return s.wireTriggers()
}

// resolveInputs resolves every referenced instance of a binding.
// A reference into a set that has not grown the element yet makes the
// binding vacuous for now; it is retried at the next new-object wave.
func (s *Store) resolveInputs(refs []ir.ChoiceInstance, args, foralls []catalogue.ObjectID) ([]inputRef, []Key, bool, error) {
	inputs := make([]inputRef, len(refs))
	reads := make([]Key, 0, len(refs))
	for i, ref := range refs {
		in, err := s.resolveInput(ref, args, foralls)
		if err != nil {
			return nil, nil, false, err
		}
		if !s.domains.Has(in.key) {
			return nil, nil, false, nil
		}
		inputs[i] = in
		reads = append(reads, in.key)
	}
	return inputs, reads, true, nil
}

func (s *Store) wireInstance(key Key, inst *instance) error {
	switch def := inst.choice.Def().(type) {
	case ir.EnumChoice:
		return s.wireFilters(key, inst, def.Enum)
	case ir.CounterChoice:
		return s.wireCounter(key, inst, def)
	}
	return nil
}

func (s *Store) wireFilters(key Key, inst *instance, enum *ir.Enum) error {
	for fi, f := range inst.choice.Filters() {
		tuples, err := s.boundTuples(f.ForallSets, inst.args, false)
		if err != nil {
			return err
		}
		for _, tuple := range tuples {
			itemKey := fmt.Sprintf("f|%s|%d|%s", key, fi, joinArgs(tuple))
			if s.registered[itemKey] {
				continue
			}
			inputs, reads, live, err := s.resolveInputs(f.Inputs, inst.args, tuple)
			if err != nil {
				return err
			}
			if !live {
				continue
			}
			s.register(&filterItem{
				key:     itemKey,
				target:  key,
				filter:  f,
				enum:    enum,
				args:    inst.args,
				foralls: tuple,
				inputs:  inputs,
			}, reads)
		}
	}
	return nil
}

func (s *Store) wireCounter(key Key, inst *instance, def ir.CounterChoice) error {
	c := inst.counter
	tuples, err := s.boundTuples(def.IterSets, inst.args, false)
	if err != nil {
		return err
	}
	item := &counterItem{key: "ci|" + key.String(), counter: key}
	reads := []Key{key}
	changed := false
	for _, tuple := range tuples {
		ckey := joinArgs(tuple)
		if c.contribKeys[ckey] {
			continue
		}
		incr, err := s.resolveInput(def.Incr, inst.args, tuple)
		if err != nil {
			return err
		}
		if !s.domains.Has(incr.key) {
			continue
		}
		ct := &counterContrib{incr: incr, cond: def.IncrCondition}
		contribReads := []Key{incr.key}
		switch v := def.Value.(type) {
		case ir.CounterValCode:
			amount, err := s.cat.Amount(v.Code)
			if err != nil {
				return err
			}
			ct.fixed = amount(s.inst, objsFor(v.Code.Vars(), inst.args, tuple))
		case ir.CounterValCounter:
			ref, err := s.resolveInput(v.Counter, inst.args, tuple)
			if err != nil {
				return err
			}
			if !s.domains.Has(ref.key) {
				continue
			}
			ct.valueRef = &ref
			contribReads = append(contribReads, ref.key)
		default:
			return errors.Errorf("counter %s: unknown value kind", key.Choice)
		}
		c.contribKeys[ckey] = true
		changed = true
		reads = append(reads, contribReads...)
		c.contribs = append(c.contribs, ct)
	}
	if changed || !s.registered[item.itemKey()] {
		s.registerCounterItem(item, reads)
	}
	return nil
}

// registerCounterItem extends the dependency index of a counter item;
// unlike filters, a counter gains read edges as its sets grow.
func (s *Store) registerCounterItem(it *counterItem, reads []Key) {
	if !s.registered[it.itemKey()] {
		s.registered[it.itemKey()] = true
		s.items = append(s.items, it)
	}
	for _, key := range reads {
		in := false
		for _, reg := range s.deps[key] {
			if reg.itemKey() == it.itemKey() {
				in = true
				break
			}
		}
		if !in {
			s.deps[key] = append(s.deps[key], it)
		}
	}
	s.list.push(it)
}

func (s *Store) wireCounterRequire(req *ir.CounterRequire) error {
	tuples, err := s.boundTuples(req.ForallSets, nil, false)
	if err != nil {
		return err
	}
	amount, err := s.cat.Amount(req.Rhs)
	if err != nil {
		return err
	}
	for _, tuple := range tuples {
		in, err := s.resolveInput(req.Counter, nil, tuple)
		if err != nil {
			return err
		}
		k := amount(s.inst, objsFor(req.Rhs.Vars(), nil, tuple))
		limit, err := limitFromCmp(req.Op, k)
		if err != nil {
			return err
		}
		if err := s.restrictCounterLimit(in.key, limit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) wireStaticRequires() error {
	for ri, req := range s.desc.StaticRequires() {
		tuples, err := s.boundTuples(req.ForallSets, nil, false)
		if err != nil {
			return err
		}
		for _, tuple := range tuples {
			itemKey := fmt.Sprintf("s|%d|%s", ri, joinArgs(tuple))
			if s.registered[itemKey] {
				continue
			}
			inputs, reads, live, err := s.resolveInputs(req.Inputs, nil, tuple)
			if err != nil {
				return err
			}
			if !live {
				continue
			}
			s.register(&staticItem{
				key:     itemKey,
				req:     req,
				foralls: tuple,
				inputs:  inputs,
			}, reads)
		}
	}
	return nil
}

func (s *Store) wireTriggers() error {
	for _, t := range s.desc.Triggers() {
		tuples, err := s.boundTuples(t.ForallSets, nil, false)
		if err != nil {
			return err
		}
		for _, tuple := range tuples {
			itemKey := fmt.Sprintf("t|%d|%s", t.ID(), joinArgs(tuple))
			if s.registered[itemKey] {
				continue
			}
			inputs, reads, live, err := s.resolveInputs(t.Inputs, nil, tuple)
			if err != nil {
				return err
			}
			if !live {
				continue
			}
			s.register(&triggerItem{
				key:     itemKey,
				trigger: t,
				foralls: tuple,
				inputs:  inputs,
			}, reads)
		}
	}
	return nil
}
