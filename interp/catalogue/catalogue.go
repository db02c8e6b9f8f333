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

// Package catalogue binds a compiled description to a host IR instance.
//
// The description only carries opaque host snippets for set iteration,
// membership, predicates, and trigger actions. The catalogue is the
// runtime registry resolving those snippets: sets are bound by name to
// iteration and membership hooks, and snippets are bound by content
// hash, so that two textually equal snippets share one binding.
package catalogue

import (
	"github.com/pkg/errors"
	"github.com/sx-org/sx/build/ir"
	"github.com/sx-org/sx/interp/domain"
)

// Instance is the host IR instance a store is built over. The core
// never looks inside: it only passes it back to host hooks.
type Instance any

// ObjectID identifies an element of a set within an instance. The host
// picks the encoding; identifiers are only compared for equality and
// used as map keys.
type ObjectID string

// NoParent is the parent identifier of plain, unparameterised sets.
const NoParent = ObjectID("")

// SetBinding is the iteration contract and membership test of one
// declared set over a host instance.
type SetBinding struct {
	// Iterate enumerates the elements of the set, scoped by the parent
	// argument for parameterised sets ([NoParent] otherwise). The
	// returned order must be stable for a given instance.
	Iterate func(inst Instance, parent ObjectID) []ObjectID
	// Contains is the membership test of the set.
	Contains func(inst Instance, parent, id ObjectID) bool
	// FromSuperset filters an element of the superset into this set.
	// Nil when the set declares no superset.
	FromSuperset func(inst Instance, parent, super ObjectID) (ObjectID, bool)
}

type (
	// Predicate is a host boolean over an instance and the objects
	// bound to the snippet variables, in snippet variable order.
	Predicate func(inst Instance, objs []ObjectID) bool

	// Universe computes the initial integer domain of an integer
	// choice instance.
	Universe func(inst Instance, objs []ObjectID) domain.IntegerRef

	// Amount computes a counter base or increment value.
	Amount func(inst Instance, objs []ObjectID) int64

	// Action is a trigger hook. New objects inferred by the action are
	// appended to the log. A false return is a contradiction.
	Action func(inst Instance, objs []ObjectID, log *NewObjs) bool
)

// NewObj is one element inferred into a set during propagation.
type NewObj struct {
	Set    string
	Parent ObjectID
	ID     ObjectID
}

// NewObjs is the append-only log of objects created while propagating.
type NewObjs struct {
	objs []NewObj
}

// Add appends an inferred element.
func (l *NewObjs) Add(set string, parent, id ObjectID) {
	l.objs = append(l.objs, NewObj{Set: set, Parent: parent, ID: id})
}

// Drain returns the logged elements and empties the log.
func (l *NewObjs) Drain() []NewObj {
	objs := l.objs
	l.objs = nil
	return objs
}

// Empty returns true if nothing has been logged.
func (l *NewObjs) Empty() bool { return len(l.objs) == 0 }

// Catalogue registers the host bindings of a description.
type Catalogue struct {
	sets      map[string]SetBinding
	preds     map[ir.Hash]Predicate
	universes map[ir.Hash]Universe
	amounts   map[ir.Hash]Amount
	actions   map[ir.Hash]Action
	ints      domain.IntegerOps
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{
		sets:      make(map[string]SetBinding),
		preds:     make(map[ir.Hash]Predicate),
		universes: make(map[ir.Hash]Universe),
		amounts:   make(map[ir.Hash]Amount),
		actions:   make(map[ir.Hash]Action),
	}
}

// BindSet registers the binding of a declared set.
func (c *Catalogue) BindSet(name string, b SetBinding) *Catalogue {
	c.sets[name] = b
	return c
}

// BindPredicate registers a host predicate under the hash of its
// snippet text.
func (c *Catalogue) BindPredicate(text string, p Predicate) *Catalogue {
	c.preds[ir.NewCode(text).Hash()] = p
	return c
}

// BindUniverse registers an integer universe under the hash of its
// snippet text.
func (c *Catalogue) BindUniverse(text string, u Universe) *Catalogue {
	c.universes[ir.NewCode(text).Hash()] = u
	return c
}

// BindAmount registers a counter amount under the hash of its snippet
// text.
func (c *Catalogue) BindAmount(text string, a Amount) *Catalogue {
	c.amounts[ir.NewCode(text).Hash()] = a
	return c
}

// BindAction registers a trigger action under the hash of its snippet
// text.
func (c *Catalogue) BindAction(text string, a Action) *Catalogue {
	c.actions[ir.NewCode(text).Hash()] = a
	return c
}

// BindIntegerOps registers the host integer domain implementation.
func (c *Catalogue) BindIntegerOps(ops domain.IntegerOps) *Catalogue {
	c.ints = ops
	return c
}

// Set returns the binding of a set.
func (c *Catalogue) Set(name string) (SetBinding, error) {
	b, ok := c.sets[name]
	if !ok {
		return SetBinding{}, errors.Errorf("no host binding for set %s", name)
	}
	return b, nil
}

// Predicate returns the binding of a predicate snippet.
func (c *Catalogue) Predicate(code ir.Code) (Predicate, error) {
	p, ok := c.preds[code.Hash()]
	if !ok {
		return nil, errors.Errorf("no host predicate bound for snippet %q", code.Text())
	}
	return p, nil
}

// Universe returns the binding of an integer universe snippet.
func (c *Catalogue) Universe(code ir.Code) (Universe, error) {
	u, ok := c.universes[code.Hash()]
	if !ok {
		return nil, errors.Errorf("no host universe bound for snippet %q", code.Text())
	}
	return u, nil
}

// Amount returns the binding of a counter amount snippet.
func (c *Catalogue) Amount(code ir.Code) (Amount, error) {
	a, ok := c.amounts[code.Hash()]
	if !ok {
		return nil, errors.Errorf("no host amount bound for snippet %q", code.Text())
	}
	return a, nil
}

// Action returns the binding of a trigger action snippet.
func (c *Catalogue) Action(code ir.Code) (Action, error) {
	a, ok := c.actions[code.Hash()]
	if !ok {
		return nil, errors.Errorf("no host action bound for snippet %q", code.Text())
	}
	return a, nil
}

// IntegerOps returns the host integer domain implementation.
func (c *Catalogue) IntegerOps() (domain.IntegerOps, error) {
	if c.ints == nil {
		return nil, errors.New("no host integer domain implementation bound")
	}
	return c.ints, nil
}
