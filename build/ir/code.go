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

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hash identifies a host snippet by the digest of its text.
// Two textually equal snippets share the same hash, and with it any
// compiled state the host attaches to it.
type Hash string

// Code is an opaque host-language snippet. The core never interprets
// the text: it is either handed to the emitter, or resolved at run time
// against a host binding registered under the snippet hash.
type Code struct {
	text string
	vars []Variable
	hash Hash
}

// NewCode returns a snippet referencing the given variables.
func NewCode(text string, vars ...Variable) Code {
	sum := sha256.Sum256([]byte(text))
	return Code{
		text: text,
		vars: vars,
		hash: Hash(hex.EncodeToString(sum[:])),
	}
}

// IsZero returns true for the absent snippet.
func (c Code) IsZero() bool {
	return c.text == "" && c.hash == ""
}

// Text returns the snippet source.
func (c Code) Text() string { return c.text }

// Vars returns the specification variables the snippet references.
func (c Code) Vars() []Variable { return c.vars }

// Hash returns the content hash of the snippet.
func (c Code) Hash() Hash { return c.hash }

// String returns the snippet source.
func (c Code) String() string { return c.text }

// VarKind distinguishes formal choice arguments from universally
// quantified variables.
type VarKind int

// Variable kinds.
const (
	// VarArg is a formal argument of the enclosing choice.
	VarArg VarKind = iota
	// VarForall is bound by a forall of the enclosing filter or trigger.
	VarForall
)

// Variable references a specification variable by kind and index.
type Variable struct {
	Kind  VarKind
	Index int
}

// Arg returns the i-th formal argument variable.
func Arg(i int) Variable { return Variable{Kind: VarArg, Index: i} }

// Forall returns the i-th universally quantified variable.
func Forall(i int) Variable { return Variable{Kind: VarForall, Index: i} }

// String returns a debug form of the variable.
func (v Variable) String() string {
	if v.Kind == VarArg {
		return "$arg" + strconv.Itoa(v.Index)
	}
	return "$forall" + strconv.Itoa(v.Index)
}
