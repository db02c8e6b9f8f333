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

// Package store holds the mutable fixpoint state of a search space:
// one domain per choice instance, a dependency index from instances to
// the filters, counters and triggers reading them, and a work-list
// propagator narrowing domains until fixpoint or contradiction.
//
// A store is owned by one logical task at a time. The description and
// the IR instance it is built over are shared and read-only; clones
// diverge independently.
package store

import (
	stderrors "errors"
	"strings"

	"github.com/pkg/errors"
	"github.com/sx-org/sx/base/ordered"
	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/domain"
)

// ErrContradiction reports that a domain became empty. The store is
// unusable afterwards and must be dropped; callers resume from a prior
// clone.
var ErrContradiction = stderrors.New("contradiction")

// Key identifies a live choice instance. Symmetric choices keep a
// single canonical instance; the swapped tuple reads through it.
type Key struct {
	Choice string
	Args   string
}

const argSep = "\x1f"

func joinArgs(args []catalogue.ObjectID) string {
	ss := make([]string, len(args))
	for i, a := range args {
		ss[i] = string(a)
	}
	return strings.Join(ss, argSep)
}

// String returns a debug form of the key.
func (k Key) String() string {
	return k.Choice + "(" + strings.ReplaceAll(k.Args, argSep, ", ") + ")"
}

// instance is the state of one live choice instance. Exactly one of
// enum, integer and counter is in use, matching the choice definition.
type instance struct {
	choice *ir.Choice
	args   []catalogue.ObjectID

	enum    ir.ValueSet
	integer domain.IntegerRef
	counter *counterState
}

func (n *instance) clone() *instance {
	c := &instance{
		choice:  n.choice,
		args:    n.args,
		enum:    n.enum,
		integer: n.integer,
	}
	if n.counter != nil {
		c.counter = n.counter.clone()
	}
	return c
}

// inputRef is a resolved read of a choice instance. An inverted read
// applies the enum involution of an antisymmetric choice.
type inputRef struct {
	key      Key
	inverted bool
	enum     *ir.Enum
}

// Action is the explorer's sole mutation: restrict one instance to a
// subset of its current domain. Exactly one of Values, Integer and
// Limit must be set, matching the choice kind.
type Action struct {
	Choice string
	Args   []catalogue.ObjectID

	// Values restricts an enum instance.
	Values ir.ValueSet
	// Integer restricts an integer instance.
	Integer domain.IntegerRef
	// Limit restricts the interval of a counter instance.
	Limit *domain.Range
}

// Store is the domain store.
type Store struct {
	desc *ir.Desc
	cat  *catalogue.Catalogue
	inst catalogue.Instance
	ints domain.IntegerOps

	domains *ordered.Map[Key, *instance]
	// deps is the dependency index: every item to re-evaluate when the
	// instance narrows, in registration order.
	deps map[Key][]workItem
	// items holds every registered item in registration order; used to
	// re-audit the whole store after a new-object wave.
	items []workItem
	// registered dedups item registration across new-object waves.
	registered map[string]bool

	list    worklist
	fired   map[string]bool
	newObjs catalogue.NewObjs
	actions []Action
	failed  bool
}

// New builds a store over an IR instance: every choice is instantiated
// for every satisfying argument tuple with its top domain, all filters
// and counters are wired, and the store is propagated to its initial
// fixpoint. A contradiction here means the static requirements are
// unsatisfiable on this instance.
func New(desc *ir.Desc, cat *catalogue.Catalogue, inst catalogue.Instance) (*Store, error) {
	s := &Store{
		desc:       desc,
		cat:        cat,
		inst:       inst,
		domains:    ordered.NewMap[Key, *instance](),
		deps:       make(map[Key][]workItem),
		registered: make(map[string]bool),
		fired:      make(map[string]bool),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Desc returns the shared description the store was built from.
func (s *Store) Desc() *ir.Desc { return s.desc }

// Instance returns the IR instance the store was built over.
func (s *Store) Instance() catalogue.Instance { return s.inst }

// NumInstances returns the number of live choice instances.
func (s *Store) NumInstances() int { return s.domains.Size() }

// Keys iterates over the live instance keys in creation order.
func (s *Store) Keys() func(func(Key) bool) {
	return s.domains.Keys()
}

// resolve returns the canonical key of a choice applied to a concrete
// tuple, and whether the presented orientation is the swap of the
// canonical one.
func (s *Store) resolve(choice *ir.Choice, args []catalogue.ObjectID) (Key, bool) {
	swapped := false
	if choice.Arguments().IsSymmetric() && len(args) == 2 && args[0] > args[1] {
		args = []catalogue.ObjectID{args[1], args[0]}
		swapped = true
	}
	return Key{Choice: choice.Name(), Args: joinArgs(args)}, swapped
}

func (s *Store) lookup(name string, args []catalogue.ObjectID) (*ir.Choice, *instance, bool, error) {
	choice, ok := s.desc.Choice(name)
	if !ok {
		return nil, nil, false, errors.Errorf("undefined choice %s", name)
	}
	if len(args) != choice.Arguments().Len() {
		return nil, nil, false, errors.Errorf(
			"choice %s takes %d arguments, got %d", name, choice.Arguments().Len(), len(args))
	}
	key, swapped := s.resolve(choice, args)
	inst, ok := s.domains.Load(key)
	if !ok {
		return nil, nil, false, errors.Errorf("no live instance %s", key)
	}
	return choice, inst, swapped, nil
}

// EnumDomain returns the current domain of an enum instance. Reads
// through the canonicalising view: for an antisymmetric choice, the
// swapped tuple returns the involution of the canonical domain.
func (s *Store) EnumDomain(name string, args ...catalogue.ObjectID) (ir.ValueSet, error) {
	choice, inst, swapped, err := s.lookup(name, args)
	if err != nil {
		return ir.ValueSet{}, err
	}
	def, ok := choice.Def().(ir.EnumChoice)
	if !ok {
		return ir.ValueSet{}, errors.Errorf("choice %s is not an enum", name)
	}
	dom := inst.enum
	if swapped && choice.Arguments().IsInverse() {
		dom = def.Enum.Inverse(dom)
	}
	return dom, nil
}

// CounterDomain returns the current interval of a counter instance.
// Half counters expose only their lower bound.
func (s *Store) CounterDomain(name string, args ...catalogue.ObjectID) (domain.Range, error) {
	_, inst, _, err := s.lookup(name, args)
	if err != nil {
		return domain.Range{}, err
	}
	if inst.counter == nil {
		return domain.Range{}, errors.Errorf("choice %s is not a counter", name)
	}
	eff := inst.counter.effective()
	if inst.counter.half {
		eff.Hi = ir.CounterMax
	}
	return eff, nil
}

// IntegerDomain returns the current host reference of an integer
// instance.
func (s *Store) IntegerDomain(name string, args ...catalogue.ObjectID) (domain.IntegerRef, error) {
	choice, inst, _, err := s.lookup(name, args)
	if err != nil {
		return nil, err
	}
	if _, ok := choice.Def().(ir.IntegerChoice); !ok {
		return nil, errors.Errorf("choice %s is not an integer", name)
	}
	return inst.integer, nil
}

// IsConstrained returns true when every live enum and integer instance
// and every full counter is reduced to a single value: the store then
// denotes one fully specified point of the search space. Half counters
// are not checked.
func (s *Store) IsConstrained() bool {
	for inst := range s.domains.Values() {
		switch inst.choice.Def().(type) {
		case ir.EnumChoice:
			if !inst.enum.IsConstrained() {
				return false
			}
		case ir.CounterChoice:
			if !inst.counter.half && !inst.counter.effective().IsConstrained() {
				return false
			}
		case ir.IntegerChoice:
			if !s.ints.IsSingleton(inst.integer) {
				return false
			}
		}
	}
	return true
}

// Actions returns the actions applied since the store was opened, in
// order. Replaying them on a fresh store of the same instance rebuilds
// equal domains.
func (s *Store) Actions() []Action {
	return append([]Action{}, s.actions...)
}

// Apply restricts one instance and propagates to fixpoint. On
// contradiction the store is left in a deterministic partially
// restricted state and must be dropped.
func (s *Store) Apply(a Action) error {
	if s.failed {
		return errors.Wrap(ErrContradiction, "store has already failed")
	}
	choice, _, swapped, err := s.lookup(a.Choice, a.Args)
	if err != nil {
		return err
	}
	key, _ := s.resolve(choice, a.Args)
	var rerr error
	switch def := choice.Def().(type) {
	case ir.EnumChoice:
		values := a.Values
		if values.Enum() != def.Enum.Name() {
			return errors.Errorf("action on %s: value set of enum %s", a.Choice, values.Enum())
		}
		if swapped && choice.Arguments().IsInverse() {
			values = def.Enum.Inverse(values)
		}
		rerr = s.restrictEnum(key, values, false)
	case ir.IntegerChoice:
		if a.Integer == nil {
			return errors.Errorf("action on integer choice %s without an integer domain", a.Choice)
		}
		rerr = s.restrictInteger(key, a.Integer)
	case ir.CounterChoice:
		if a.Limit == nil {
			return errors.Errorf("action on counter %s without a limit", a.Choice)
		}
		rerr = s.restrictCounterLimit(key, *a.Limit)
	default:
		return errors.Errorf("choice %s: unknown definition", a.Choice)
	}
	if rerr != nil {
		if errors.Is(rerr, ErrContradiction) {
			s.failed = true
		}
		return rerr
	}
	s.actions = append(s.actions, a)
	return s.propagate()
}

// Clone returns an independent copy of the store. The description, the
// catalogue and the IR instance stay shared; domains, work list and
// trigger state are copied.
func (s *Store) Clone() *Store {
	c := &Store{
		desc:       s.desc,
		cat:        s.cat,
		inst:       s.inst,
		ints:       s.ints,
		domains:    ordered.CloneWith(s.domains, (*instance).clone),
		deps:       make(map[Key][]workItem, len(s.deps)),
		items:      append([]workItem{}, s.items...),
		registered: make(map[string]bool, len(s.registered)),
		fired:      make(map[string]bool, len(s.fired)),
		actions:    append([]Action{}, s.actions...),
		failed:     s.failed,
	}
	for k, v := range s.deps {
		c.deps[k] = append([]workItem{}, v...)
	}
	for k := range s.registered {
		c.registered[k] = true
	}
	for k := range s.fired {
		c.fired[k] = true
	}
	c.list = s.list.clone()
	return c
}

// Drop releases the store. The store must not be used afterwards.
func (s *Store) Drop() {
	s.domains = nil
	s.deps = nil
	s.items = nil
	s.registered = nil
	s.fired = nil
	s.list = worklist{}
	s.failed = true
}
