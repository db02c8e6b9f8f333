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

package ir

// Trigger pairs a guard over choice domains with a host action. The
// store fires the action at most once per argument tuple, when the
// guard has become certainly true.
type Trigger struct {
	id int
	// ForallSets quantify the argument tuple of the trigger.
	ForallSets []BoundSet
	// Inputs are the choice instances the guard reads. Variables are
	// all foralls: a trigger has no enclosing choice.
	Inputs []ChoiceInstance
	// Conditions must all be certain for the trigger to become
	// eligible.
	Conditions []Test
	// Code is the host action. Its return value is advisory: a false
	// return is treated as a contradiction.
	Code Code
}

// NewTrigger declares a trigger. The identifier is assigned when the
// trigger is registered in a description.
func NewTrigger(foralls []BoundSet, inputs []ChoiceInstance, conditions []Test, code Code) *Trigger {
	return &Trigger{
		ForallSets: foralls,
		Inputs:     inputs,
		Conditions: conditions,
		Code:       code,
	}
}

// ID returns the identifier of the trigger within its description.
func (t *Trigger) ID() int { return t.id }
