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
)

// triggerItem checks the guard of a trigger for one argument tuple.
// The tuple moves PENDING → ELIGIBLE when every guard test becomes
// certain, and ELIGIBLE → FIRED by invoking the host action. There is
// no reverse transition: the fired set guarantees at-most-once
// delivery, including across new-object waves.
type triggerItem struct {
	key     string
	trigger *ir.Trigger
	foralls []catalogue.ObjectID
	inputs  []inputRef
}

func (it *triggerItem) itemKey() string { return it.key }

func (it *triggerItem) run(s *Store) error {
	if s.fired[it.key] {
		return nil
	}
	for _, test := range it.trigger.Conditions {
		ok, err := s.testHolds(test, nil, it.foralls, it.inputs)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	s.fired[it.key] = true
	action, err := s.cat.Action(it.trigger.Code)
	if err != nil {
		return err
	}
	objs := objsFor(it.trigger.Code.Vars(), nil, it.foralls)
	if !action(s.inst, objs, &s.newObjs) {
		return errors.Wrapf(ErrContradiction, "trigger action %q failed", it.trigger.Code.Text())
	}
	return nil
}
