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

package domain

import (
	"fmt"

	"github.com/sx-org/sx/build/ir"
)

// Range is the closed interval domain of a counter. Lo only rises and
// Hi only falls; the domain fails when they cross.
type Range struct {
	Lo, Hi int64
}

// FullRange returns the unconstrained interval.
func FullRange() Range {
	return Range{Lo: 0, Hi: ir.CounterMax}
}

// Singleton returns the interval holding exactly n.
func Singleton(n int64) Range {
	return Range{Lo: n, Hi: n}
}

// IsFailed returns true when no value remains.
func (r Range) IsFailed() bool { return r.Lo > r.Hi }

// IsConstrained returns true when a single value remains.
func (r Range) IsConstrained() bool { return r.Lo == r.Hi }

// Contains returns true if n is in the interval.
func (r Range) Contains(n int64) bool { return r.Lo <= n && n <= r.Hi }

// Intersect returns the intersection of both intervals.
func (r Range) Intersect(o Range) Range {
	return Range{Lo: max64(r.Lo, o.Lo), Hi: min64(r.Hi, o.Hi)}
}

// Equal returns true if both intervals hold the same values.
func (r Range) Equal(o Range) bool {
	return r.Lo == o.Lo && r.Hi == o.Hi
}

// String returns a debug form of the interval.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
