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

package builder

import (
	"github.com/sx-org/sx/build/ast"
	"github.com/sx-org/sx/build/ir"
)

// compileTriggers lowers the queued triggers. Unlike filter guards,
// trigger conditions test that their literal became certainly true.
func (b *bld) compileTriggers() {
	for _, t := range b.triggers {
		b.compileTrigger(t)
	}
}

func (b *bld) compileTrigger(t *ast.TriggerDef) {
	sc := b.bindVars(t.Foralls, ir.VarForall, nil)
	if len(sc.names) != len(t.Foralls) {
		return
	}
	if len(t.Conditions) == 0 {
		b.errorf(t, "a trigger requires a guard")
		return
	}
	var inputs []ir.ChoiceInstance
	var conds []ir.Test
	for _, cond := range t.Conditions {
		switch c := cond.(type) {
		case *ast.ConditionIs:
			inst, choice, ok := b.instance(c.Lhs, sc)
			if !ok {
				return
			}
			def, isEnum := choice.Def().(ir.EnumChoice)
			if !isEnum {
				b.errorf(c, "choice %s is not an enum", choice.Name())
				return
			}
			values, err := def.Enum.ValueSet(identNames(c.Values)...)
			if err != nil {
				b.errorf(c, "%s", err)
				return
			}
			conds = append(conds, ir.EnumTest{
				Input:  inputIndex(&inputs, inst),
				Values: values,
				Subset: c.Is,
			})
		case *ast.ConditionCode:
			code, ok := b.code(c.Code, sc)
			if !ok {
				return
			}
			conds = append(conds, ir.CodeTest{Code: code, Want: !c.Negate})
		case *ast.ConditionCmp:
			inst, choice, ok := b.instance(c.Lhs, sc)
			if !ok {
				return
			}
			op := ir.CmpOp(c.Op)
			if !b.validCmp(c, choice, op) {
				return
			}
			rhs, ok := b.code(c.Rhs, sc)
			if !ok {
				return
			}
			conds = append(conds, ir.CmpTest{
				Input: inputIndex(&inputs, inst),
				Op:    op,
				Rhs:   rhs,
			})
		default:
			b.errorf(cond, "unknown condition %T", cond)
			return
		}
	}
	code, ok := b.code(t.Code, sc)
	if !ok {
		return
	}
	b.desc.AddTrigger(ir.NewTrigger(sc.sets, inputs, conds, code))
}
