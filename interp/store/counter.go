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
	"github.com/sx-org/sx/interp/domain"
)

// counterState is the interval state of one counter instance.
//
// bounds is derived from the contributions: its lower bound only rises
// and its upper bound only falls while the object sets are stable (a
// new-object wave may raise the upper bound, as new contributors join
// the sum). limit is narrowed by requires and explicit actions and
// never widens. The exposed domain is their intersection.
type counterState struct {
	kind ir.CounterKind
	half bool
	base int64

	bounds domain.Range
	limit  domain.Range

	contribs    []*counterContrib
	contribKeys map[string]bool
}

// counterContrib is one contribution edge.
type counterContrib struct {
	// incr is the guard instance; the contribution counts when its
	// domain is reduced inside cond.
	incr inputRef
	cond ir.ValueSet
	// fixed amount, or valueRef when the amount is another counter.
	fixed    int64
	valueRef *inputRef
	// memoised contribution with the guard applied.
	lo, hi int64
}

func (c *counterState) clone() *counterState {
	n := &counterState{
		kind:        c.kind,
		half:        c.half,
		base:        c.base,
		bounds:      c.bounds,
		limit:       c.limit,
		contribKeys: make(map[string]bool, len(c.contribKeys)),
	}
	for k := range c.contribKeys {
		n.contribKeys[k] = true
	}
	n.contribs = make([]*counterContrib, len(c.contribs))
	for i, ct := range c.contribs {
		cp := *ct
		n.contribs[i] = &cp
	}
	return n
}

// effective returns the exposed interval of the counter.
func (c *counterState) effective() domain.Range {
	return c.bounds.Intersect(c.limit)
}

// contribRaw returns the unguarded amount interval of a contribution.
func (s *Store) contribRaw(ct *counterContrib) (int64, int64, error) {
	if ct.valueRef == nil {
		return ct.fixed, ct.fixed, nil
	}
	inst, ok := s.domains.Load(ct.valueRef.key)
	if !ok {
		return 0, 0, errors.Errorf("no live instance %s", ct.valueRef.key)
	}
	if inst.counter == nil {
		return 0, 0, errors.Errorf("%s is not a counter", ct.valueRef.key)
	}
	eff := inst.counter.effective()
	return eff.Lo, eff.Hi, nil
}

// guardTruth returns the three-valued truth of a contribution guard.
func (s *Store) guardTruth(ct *counterContrib) (domain.Bool, error) {
	inst, ok := s.domains.Load(ct.incr.key)
	if !ok {
		return domain.Maybe, errors.Errorf("no live instance %s", ct.incr.key)
	}
	dom := inst.enum
	if ct.incr.inverted {
		dom = ct.incr.enum.Inverse(dom)
	}
	return domain.Truth(dom, ct.cond), nil
}

// refreshContrib recomputes the memoised contribution of one edge.
func (s *Store) refreshContrib(c *counterState, ct *counterContrib) error {
	guard, err := s.guardTruth(ct)
	if err != nil {
		return err
	}
	rawLo, rawHi, err := s.contribRaw(ct)
	if err != nil {
		return err
	}
	id := c.kind.Identity()
	ct.lo, ct.hi = id, id
	if guard.IsTrue() {
		ct.lo = rawLo
	}
	if guard.MaybeTrue() {
		ct.hi = rawHi
	}
	return nil
}

// fold recombines the memoised contributions into the derived bounds.
func (c *counterState) fold() domain.Range {
	lo, hi := c.base, c.base
	for _, ct := range c.contribs {
		lo = c.kind.Apply(lo, ct.lo)
		hi = c.kind.Apply(hi, ct.hi)
	}
	return domain.Range{Lo: lo, Hi: hi}
}

// counterItem refreshes a counter: recompute its derived interval,
// check it against the limit, and prune increments the limit can no
// longer afford.
type counterItem struct {
	key     string
	counter Key
}

func (it *counterItem) itemKey() string { return it.key }

func (it *counterItem) run(s *Store) error {
	inst, ok := s.domains.Load(it.counter)
	if !ok {
		return errors.Errorf("no live instance %s", it.counter)
	}
	c := inst.counter
	oldEff := c.effective()
	for _, ct := range c.contribs {
		if err := s.refreshContrib(c, ct); err != nil {
			return err
		}
	}
	c.bounds = c.fold()
	eff := c.effective()
	if eff.IsFailed() {
		return errors.Wrapf(ErrContradiction, "counter %s: value in %v violates bound %v",
			it.counter, c.bounds, c.limit)
	}
	if err := s.pruneIncrements(it.counter, c); err != nil {
		return err
	}
	if !eff.Equal(oldEff) {
		s.touch(it.counter)
	}
	return nil
}

// pruneIncrements forces undecided guards whose contribution no longer
// fits the counter limit. For a total counter, a guard whose absence
// would starve the lower bound is forced the other way.
func (s *Store) pruneIncrements(key Key, c *counterState) error {
	for i, ct := range c.contribs {
		guard, err := s.guardTruth(ct)
		if err != nil {
			return err
		}
		if guard != domain.Maybe {
			continue
		}
		rawLo, _, err := s.contribRaw(ct)
		if err != nil {
			return err
		}
		// The counter's lower bound if this guard turned out true.
		loIfTrue := c.kind.Apply(c.bounds.Lo, rawLo)
		if loIfTrue > c.limit.Hi {
			if err := s.forceGuard(ct, false); err != nil {
				return err
			}
			continue
		}
		if c.half {
			continue
		}
		// The counter's upper bound if this guard turned out false.
		hiIfFalse := c.foldHiExcluding(i)
		if hiIfFalse < c.limit.Lo {
			if err := s.forceGuard(ct, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// foldHiExcluding recomputes the derived upper bound without one
// contribution.
func (c *counterState) foldHiExcluding(skip int) int64 {
	hi := c.base
	for i, ct := range c.contribs {
		if i == skip {
			continue
		}
		hi = c.kind.Apply(hi, ct.hi)
	}
	return hi
}

// forceGuard restricts a guard instance to, or away from, its
// increment condition.
func (s *Store) forceGuard(ct *counterContrib, to bool) error {
	mask := ct.cond
	if !to {
		mask = ct.incr.enum.All().Minus(ct.cond)
	}
	if ct.incr.inverted {
		mask = ct.incr.enum.Inverse(mask)
	}
	return s.restrictEnum(ct.incr.key, mask, true)
}

// restrictCounterLimit narrows the limit interval of a counter.
func (s *Store) restrictCounterLimit(key Key, r domain.Range) error {
	inst, ok := s.domains.Load(key)
	if !ok {
		return errors.Errorf("no live instance %s", key)
	}
	c := inst.counter
	if c == nil {
		return errors.Errorf("choice %s is not a counter", key.Choice)
	}
	next := c.limit.Intersect(r)
	if next.Equal(c.limit) {
		return nil
	}
	c.limit = next
	if c.effective().IsFailed() {
		return errors.Wrapf(ErrContradiction, "counter %s: value in %v violates bound %v",
			key, c.bounds, c.limit)
	}
	s.touch(key)
	return nil
}

// limitFromCmp translates a counter bound into a limit interval.
// Counters are non-negative; 0 is the floor of upper-bound limits.
func limitFromCmp(op ir.CmpOp, k int64) (domain.Range, error) {
	switch op {
	case ir.CmpEq:
		return domain.Range{Lo: k, Hi: k}, nil
	case ir.CmpLeq:
		return domain.Range{Lo: 0, Hi: k}, nil
	case ir.CmpLt:
		return domain.Range{Lo: 0, Hi: k - 1}, nil
	case ir.CmpGeq:
		return domain.Range{Lo: k, Hi: ir.CounterMax}, nil
	case ir.CmpGt:
		return domain.Range{Lo: k + 1, Hi: ir.CounterMax}, nil
	default:
		return domain.Range{}, errors.Errorf("operator %s cannot bound a counter", op)
	}
}
