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

// Package api is the surface the explorer drives a search space
// through: open a store over an IR instance, read domains, apply
// decisions, clone for speculative exploration, and drop.
package api

import (
	"go.uber.org/multierr"

	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/catalogue"
	"github.com/sx-org/sx/interp/domain"
	"github.com/sx-org/sx/interp/store"
)

// ErrContradiction reports an unsatisfiable store. See
// [store.ErrContradiction].
var ErrContradiction = store.ErrContradiction

// Action restricts one choice instance. See [store.Action].
type Action = store.Action

// Store is an open search space over one IR instance.
type Store struct {
	s *store.Store
}

// Open builds a store over an IR instance and propagates it to its
// initial fixpoint. Every set and snippet of the description must have
// a host binding in the catalogue; missing bindings are all reported
// at once. A contradiction means the static requirements are
// unsatisfiable on this instance.
func Open(desc *ir.Desc, cat *catalogue.Catalogue, instance catalogue.Instance) (*Store, error) {
	if err := validate(desc, cat); err != nil {
		return nil, err
	}
	s, err := store.New(desc, cat, instance)
	if err != nil {
		return nil, err
	}
	return &Store{s: s}, nil
}

// validate checks that every host hook the description can reach is
// bound, so that a missing binding surfaces at open time rather than
// mid-propagation.
func validate(desc *ir.Desc, cat *catalogue.Catalogue) error {
	var err error
	report := func(e error) {
		if e != nil {
			err = multierr.Append(err, e)
		}
	}
	for set := range desc.Sets() {
		_, e := cat.Set(set.Name())
		report(e)
	}
	needInts := false
	for choice := range desc.Choices() {
		switch def := choice.Def().(type) {
		case ir.IntegerChoice:
			needInts = true
			_, e := cat.Universe(def.Universe)
			report(e)
		case ir.CounterChoice:
			if !def.Base.IsZero() {
				_, e := cat.Amount(def.Base)
				report(e)
			}
			if v, ok := def.Value.(ir.CounterValCode); ok {
				_, e := cat.Amount(v.Code)
				report(e)
			}
		}
		for _, f := range choice.Filters() {
			for _, rule := range f.Rules {
				reportTests(cat, rule.Conditions, report)
			}
		}
	}
	for _, req := range desc.CounterRequires() {
		_, e := cat.Amount(req.Rhs)
		report(e)
	}
	for _, req := range desc.StaticRequires() {
		reportTests(cat, req.Conditions, report)
	}
	for _, t := range desc.Triggers() {
		_, e := cat.Action(t.Code)
		report(e)
		reportTests(cat, t.Conditions, report)
	}
	if needInts {
		_, e := cat.IntegerOps()
		report(e)
	}
	return err
}

func reportTests(cat *catalogue.Catalogue, tests []ir.Test, report func(error)) {
	for _, t := range tests {
		switch test := t.(type) {
		case ir.CodeTest:
			_, e := cat.Predicate(test.Code)
			report(e)
		case ir.CmpTest:
			_, e := cat.Amount(test.Rhs)
			report(e)
		}
	}
}

// EnumDomain returns the admissible values of an enum instance.
func (st *Store) EnumDomain(choice string, args ...catalogue.ObjectID) (ir.ValueSet, error) {
	return st.s.EnumDomain(choice, args...)
}

// CounterDomain returns the interval of a counter instance.
func (st *Store) CounterDomain(choice string, args ...catalogue.ObjectID) (domain.Range, error) {
	return st.s.CounterDomain(choice, args...)
}

// IntegerDomain returns the host domain of an integer instance.
func (st *Store) IntegerDomain(choice string, args ...catalogue.ObjectID) (domain.IntegerRef, error) {
	return st.s.IntegerDomain(choice, args...)
}

// Apply restricts one instance and propagates. On contradiction the
// store must be dropped; a prior clone is the only way back.
func (st *Store) Apply(a Action) error {
	return st.s.Apply(a)
}

// IsConstrained returns true once every choice is decided.
func (st *Store) IsConstrained() bool {
	return st.s.IsConstrained()
}

// Actions returns the decisions applied so far.
func (st *Store) Actions() []Action {
	return st.s.Actions()
}

// NumInstances returns the number of live choice instances.
func (st *Store) NumInstances() int {
	return st.s.NumInstances()
}

// Clone returns an independent store sharing the description and the
// IR instance. The clone and the original diverge from here.
func (st *Store) Clone() *Store {
	return &Store{s: st.s.Clone()}
}

// Drop releases the store.
func (st *Store) Drop() {
	st.s.Drop()
}
