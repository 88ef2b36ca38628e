// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package targeted

import "math"

// Coverage holds the per-base depth of one target for one accumulation unit.
type Coverage struct {
	depths []uint16
	reads  int64
}

// NewCoverage returns an all-zero Coverage over length bases.
func NewCoverage(length int) Coverage {
	if length < 0 {
		length = 0
	}
	return Coverage{depths: make([]uint16, length)}
}

// AddBase increments the depth at offset, which is relative to the target
// start.  Offsets outside the target are ignored.  Depths saturate at the
// maximum uint16.
func (c *Coverage) AddBase(offset int) {
	if offset < 0 || offset >= len(c.depths) {
		return
	}
	if c.depths[offset] < math.MaxUint16 {
		c.depths[offset]++
	}
}

// addRead counts one read that contributed at least one base.
func (c *Coverage) addRead() { c.reads++ }

// Depths returns the depth array.  The caller must not modify it.
func (c *Coverage) Depths() []uint16 { return c.depths }

// Len returns the number of bases covered by the array.
func (c *Coverage) Len() int { return len(c.depths) }

// HasCoverage returns true if any base has depth greater than one.
func (c *Coverage) HasCoverage() bool {
	for _, d := range c.depths {
		if d > 1 {
			return true
		}
	}
	return false
}

// Total returns the sum of the depths.
func (c *Coverage) Total() int64 {
	var n int64
	for _, d := range c.depths {
		n += int64(d)
	}
	return n
}

// Min returns the smallest depth, or 0 for an empty target.
func (c *Coverage) Min() int {
	if len(c.depths) == 0 {
		return 0
	}
	min := c.depths[0]
	for _, d := range c.depths[1:] {
		if d < min {
			min = d
		}
	}
	return int(min)
}

// Reads returns the number of reads that contributed a base.
func (c *Coverage) Reads() int64 { return c.reads }
