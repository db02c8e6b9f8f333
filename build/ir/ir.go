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

// Package ir is the in-memory form of a compiled specification.
// The description is built by the builder
// [github.com/sx-org/sx/build/builder] from the parsed specification
// and is immutable afterwards: domain stores derived from it only read
// it, so one description can serve any number of stores concurrently.
package ir

import (
	"github.com/pkg/errors"
	"github.com/sx-org/sx/base/ordered"
)

// Desc describes a search space: the declared sets, the enums, the
// choices with their compiled filters, and the triggers.
type Desc struct {
	sets            *ordered.Map[string, *Set]
	enums           *ordered.Map[string, *Enum]
	choices         *ordered.Map[string, *Choice]
	triggers        []*Trigger
	counterRequires []*CounterRequire
	staticRequires  []*StaticRequire
}

// NewDesc returns an empty description.
func NewDesc() *Desc {
	return &Desc{
		sets:    ordered.NewMap[string, *Set](),
		enums:   ordered.NewMap[string, *Enum](),
		choices: ordered.NewMap[string, *Choice](),
	}
}

// AddSet registers a set declaration.
func (d *Desc) AddSet(s *Set) error {
	if d.sets.Has(s.Name()) {
		return errors.Errorf("set %s declared twice", s.Name())
	}
	d.sets.Store(s.Name(), s)
	return nil
}

// Set returns a declared set given its name.
func (d *Desc) Set(name string) (*Set, bool) {
	return d.sets.Load(name)
}

// Sets iterates over the sets in declaration order.
func (d *Desc) Sets() func(func(*Set) bool) {
	return d.sets.Values()
}

// AddEnum registers an enum declaration.
func (d *Desc) AddEnum(e *Enum) error {
	if d.enums.Has(e.Name()) {
		return errors.Errorf("enum %s declared twice", e.Name())
	}
	d.enums.Store(e.Name(), e)
	return nil
}

// Enum returns a declared enum given its name.
func (d *Desc) Enum(name string) (*Enum, bool) {
	return d.enums.Load(name)
}

// AddChoice registers a choice declaration.
func (d *Desc) AddChoice(c *Choice) error {
	if d.choices.Has(c.Name()) {
		return errors.Errorf("choice %s declared twice", c.Name())
	}
	d.choices.Store(c.Name(), c)
	return nil
}

// Choice returns a declared choice given its name.
func (d *Desc) Choice(name string) (*Choice, bool) {
	return d.choices.Load(name)
}

// Choices iterates over the choices in declaration order.
func (d *Desc) Choices() func(func(*Choice) bool) {
	return d.choices.Values()
}

// NumChoices returns the number of declared choices.
func (d *Desc) NumChoices() int {
	return d.choices.Size()
}

// AddTrigger registers a trigger and returns its identifier.
func (d *Desc) AddTrigger(t *Trigger) int {
	t.id = len(d.triggers)
	d.triggers = append(d.triggers, t)
	return t.id
}

// Triggers returns the registered triggers in declaration order.
func (d *Desc) Triggers() []*Trigger {
	return d.triggers
}
