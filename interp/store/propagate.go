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
	"github.com/pkg/errors"
	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/domain"
)

// workItem is one pending re-evaluation: a filter fragment bound to a
// target instance, a counter refresh, or a trigger guard check. Items
// are immutable once built and may be shared between a store and its
// clones.
type workItem interface {
	// itemKey dedups the item in the work list and across waves.
	itemKey() string
	// run re-evaluates the item against the store.
	run(s *Store) error
}

// worklist is the pending re-evaluations, drained LIFO. An item is in
// the list at most once.
type worklist struct {
	stack   []workItem
	pending map[string]bool
}

func (l *worklist) push(it workItem) {
	if l.pending == nil {
		l.pending = make(map[string]bool)
	}
	k := it.itemKey()
	if l.pending[k] {
		return
	}
	l.pending[k] = true
	l.stack = append(l.stack, it)
}

func (l *worklist) pop() workItem {
	it := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	delete(l.pending, it.itemKey())
	return it
}

func (l *worklist) empty() bool { return len(l.stack) == 0 }

func (l *worklist) clone() worklist {
	c := worklist{stack: append([]workItem{}, l.stack...)}
	if len(l.pending) > 0 {
		c.pending = make(map[string]bool, len(l.pending))
		for k := range l.pending {
			c.pending[k] = true
		}
	}
	return c
}

// touch enqueues every item registered against an instance that just
// narrowed.
func (s *Store) touch(key Key) {
	for _, it := range s.deps[key] {
		s.list.push(it)
	}
}

// propagate drains the work list to fixpoint, then drains the
// new-objects log, instantiating choices over the new elements and
// re-entering propagation. Terminates because domains only shrink and
// sets only grow to a finite closure.
func (s *Store) propagate() error {
	for {
		for !s.list.empty() {
			it := s.list.pop()
			if err := it.run(s); err != nil {
				s.failed = true
				return err
			}
		}
		if s.newObjs.Empty() {
			return nil
		}
		if err := s.grow(s.newObjs.Drain()); err != nil {
			s.failed = true
			return err
		}
	}
}

// restrictEnum intersects the domain of an enum instance with a mask.
// Filter-driven restrictions keep the fragile values of the choice.
func (s *Store) restrictEnum(key Key, mask ir.ValueSet, fromFilter bool) error {
	inst, ok := s.domains.Load(key)
	if !ok {
		return errors.Errorf("no live instance %s", key)
	}
	cur := inst.enum
	next := cur.Intersect(mask)
	if fromFilter {
		fragile := inst.choice.FragileValues()
		if !fragile.IsEmpty() {
			next = next.Union(cur.Intersect(fragile))
		}
	}
	if next.Equal(cur) {
		return nil
	}
	if next.IsEmpty() {
		return errors.Wrapf(ErrContradiction, "domain of %s is empty", key)
	}
	inst.enum = next
	s.touch(key)
	return nil
}

// restrictInteger intersects the domain of an integer instance.
func (s *Store) restrictInteger(key Key, ref domain.IntegerRef) error {
	inst, ok := s.domains.Load(key)
	if !ok {
		return errors.Errorf("no live instance %s", key)
	}
	next := s.ints.Intersect(inst.integer, ref)
	if s.ints.Equal(next, inst.integer) {
		return nil
	}
	if s.ints.IsEmpty(next) {
		return errors.Wrapf(ErrContradiction, "domain of %s is empty", key)
	}
	inst.integer = next
	s.touch(key)
	return nil
}

// ----------------------------------------------------------------------------
// Filter evaluation.

// filterItem re-evaluates one filter fragment for a target instance
// under one binding of the filter foralls.
type filterItem struct {
	key    string
	target Key
	filter *ir.Filter
	enum   *ir.Enum
	// args and foralls resolve the filter variables.
	args    []catalogue.ObjectID
	foralls []catalogue.ObjectID
	inputs  []inputRef
}

func (it *filterItem) itemKey() string { return it.key }

// objsFor resolves filter variables to the bound objects.
func objsFor(vars []ir.Variable, args, foralls []catalogue.ObjectID) []catalogue.ObjectID {
	objs := make([]catalogue.ObjectID, len(vars))
	for i, v := range vars {
		if v.Kind == ir.VarArg {
			objs[i] = args[v.Index]
		} else {
			objs[i] = foralls[v.Index]
		}
	}
	return objs
}

// run computes the set of still-admissible values for the target and
// restricts it. The filter is a pure function of the store: a rule only
// fires once its guard is certain.
func (it *filterItem) run(s *Store) error {
	valid := it.enum.All()
	for ri := range it.filter.Rules {
		rule := &it.filter.Rules[ri]
		hold, err := s.ruleHolds(rule, it.args, it.foralls, it.inputs)
		if err != nil {
			return err
		}
		if hold {
			valid = valid.Intersect(rule.Alternatives)
		}
	}
	return s.restrictEnum(it.target, valid, true)
}

func (s *Store) ruleHolds(rule *ir.Rule, args, foralls []catalogue.ObjectID, inputs []inputRef) (bool, error) {
	for _, test := range rule.Conditions {
		ok, err := s.testHolds(test, args, foralls, inputs)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// testHolds evaluates a three-valued test; it returns true only when
// the test is certain given the current domains.
func (s *Store) testHolds(test ir.Test, args, foralls []catalogue.ObjectID, inputs []inputRef) (bool, error) {
	switch t := test.(type) {
	case ir.EnumTest:
		in := inputs[t.Input]
		inst, ok := s.domains.Load(in.key)
		if !ok {
			return false, errors.Errorf("no live instance %s", in.key)
		}
		dom := inst.enum
		if in.inverted {
			dom = in.enum.Inverse(dom)
		}
		if t.Subset {
			return dom.SubsetOf(t.Values), nil
		}
		return dom.Disjoint(t.Values), nil
	case ir.CodeTest:
		pred, err := s.cat.Predicate(t.Code)
		if err != nil {
			return false, err
		}
		objs := objsFor(t.Code.Vars(), args, foralls)
		return pred(s.inst, objs) == t.Want, nil
	case ir.CmpTest:
		in := inputs[t.Input]
		inst, ok := s.domains.Load(in.key)
		if !ok {
			return false, errors.Errorf("no live instance %s", in.key)
		}
		lo, hi, err := s.intervalOf(inst)
		if err != nil {
			return false, err
		}
		amount, err := s.cat.Amount(t.Rhs)
		if err != nil {
			return false, err
		}
		objs := objsFor(t.Rhs.Vars(), args, foralls)
		return t.Op.CertainlyTrue(lo, hi, amount(s.inst, objs)), nil
	default:
		return false, errors.Errorf("unknown test %T", test)
	}
}

// staticItem re-checks a clause that no filter can propagate: when
// every condition (the negation of every literal) becomes certain, the
// clause is falsified.
type staticItem struct {
	key     string
	req     *ir.StaticRequire
	foralls []catalogue.ObjectID
	inputs  []inputRef
}

func (it *staticItem) itemKey() string { return it.key }

func (it *staticItem) run(s *Store) error {
	for _, test := range it.req.Conditions {
		ok, err := s.testHolds(test, nil, it.foralls, it.inputs)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return errors.Wrap(ErrContradiction, "unsatisfiable requirement")
}

// intervalOf returns the convex hull of a counter or integer domain.
func (s *Store) intervalOf(inst *instance) (int64, int64, error) {
	if inst.counter != nil {
		eff := inst.counter.effective()
		return eff.Lo, eff.Hi, nil
	}
	if _, ok := inst.choice.Def().(ir.IntegerChoice); ok {
		lo, hi := s.ints.AsRange(inst.integer)
		return lo, hi, nil
	}
	return 0, 0, errors.Errorf("choice %s has no interval domain", inst.choice.Name())
}
