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

package fmterr

import (
	"fmt"
	"go/token"

	"github.com/pkg/errors"
)

type (
	// Poser is a node with a position in specification source code.
	Poser interface {
		Pos() token.Pos
	}

	// ErrorWithPos is an error attached to a position in the specification.
	ErrorWithPos interface {
		error
		FSet() *token.FileSet
		Src() Poser
		Err() error
	}

	errorWithPos struct {
		fset *token.FileSet
		src  Poser
		pos  token.Pos
		err  error
	}
)

// Position adds specification position information to an error.
func Position(fset *token.FileSet, src Poser, err error) ErrorWithPos {
	return errorWithPos{
		fset: fset,
		src:  src,
		pos:  src.Pos(), // Cache the position to make sure src is valid.
		err:  err,
	}
}

// Errorf returns a formatted compiler error for the user.
func Errorf(fset *token.FileSet, src Poser, format string, a ...any) error {
	return Position(fset, src, errors.Errorf(format, a...))
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("internal compiler error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf returns a formatted internal compiler error.
func Internalf(fset *token.FileSet, src Poser, format string, a ...any) error {
	return Internal(Errorf(fset, src, format, a...))
}

// Error returns a string description of the error.
func (err errorWithPos) Error() string {
	if err.fset == nil {
		return err.err.Error()
	}
	return PosString(err.fset, err.pos) + " " + err.err.Error()
}

// Unwrap the error.
func (err errorWithPos) Unwrap() error {
	return err.err
}

func (err errorWithPos) FSet() *token.FileSet {
	return err.fset
}

func (err errorWithPos) Src() Poser {
	return err.src
}

func (err errorWithPos) Err() error {
	return err.err
}

// PosString returns a position as a string that can be used for an error.
func PosString(fset *token.FileSet, pos token.Pos) string {
	return fset.Position(pos).String() + ":"
}
