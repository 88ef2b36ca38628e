package targeted

/**
* MIT License
*
* Copyright (c) 2017 Broad Institute
*
* Permission is hereby granted, free of charge, to any person obtaining a copy
* of this software and associated documentation files (the "Software"), to deal
* in the Software without restriction, including without limitation the rights
* to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
* copies of the Software, and to permit persons to whom the Software is
* furnished to do so, subject to the following conditions:
*
* The above copyright notice and this permission notice shall be included in all
* copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
* IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
* FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
* AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
* LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
* OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
* SOFTWARE.
 */

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
)

var errNoDuplicates = errors.E("no duplicates")

/**
 * Estimates the size of a library based on the number of paired end molecules observed
 * and the number of unique pairs observed.
 * Based on the Lander-Waterman equation that states:
 *   C/X = 1 - exp( -N/X )
 * where
 *   X = number of distinct molecules in library
 *   N = number of read pairs
 *   C = number of distinct fragments observed in read pairs
 */
func estimateLibrarySize(readPairs, uniqueReadPairs int64) (int64, error) {
	f := func(x, c, n float64) float64 {
		return c/x + math.Expm1(-n/x)
	}

	readPairDuplicates := readPairs - uniqueReadPairs
	if readPairs <= 0 || readPairDuplicates <= 0 {
		return 0, errNoDuplicates
	}
	n := float64(readPairs)
	c := float64(uniqueReadPairs)
	m := float64(1.0)
	M := float64(100.0)

	if c <= 0 || c >= n || f(m*c, c, n) < 0 {
		return 0, fmt.Errorf("invalid values for pairs and unique pairs: %v, %v", n, c)
	}

	// If c and n are large and almost equal, M can go to +Inf before f()
	// becomes negative.
	for f(M*c, c, n) >= 0 {
		M *= 10.0
		if math.IsInf(M, 1) {
			return 0, fmt.Errorf("could not find M to make f() negative with arguments (%v, %v)",
				readPairs, uniqueReadPairs)
		}
	}

	for i := 0; i < 40; i++ {
		r := (m + M) / 2.0
		u := f(r*c, c, n)
		if u == 0 {
			break
		} else if u > 0 {
			m = r
		} else if u < 0 {
			M = r
		}
	}
	return int64(c * (m + M) / 2.0), nil
}

// estimateROI estimates, for a library of librarySize molecules sequenced
// to x times the observed pairs, the multiple of the observed unique pairs
// that would be seen.
func estimateROI(librarySize int64, x float64, pairs, uniquePairs int64) float64 {
	size := float64(librarySize)
	return size * -math.Expm1(-(x*float64(pairs))/size) / float64(uniquePairs)
}

// hsPenalty returns how many aligned bases per target base must be produced
// for 80% of target bases to reach coverageGoal.  It is 0 without a library
// size estimate and -1 when no sequencing multiple within the search reaches
// the goal.
func hsPenalty(m *TargetMetrics, coverageGoal int) float64 {
	if m.HsLibrarySize == nil {
		return 0
	}
	meanCoverage := float64(m.OnTargetFromPairBases) / float64(m.TargetTerritory)
	fold80 := m.Fold80BasePenalty
	pairs, uniquePairs := m.PfSelectedPairs, m.PfSelectedUniquePairs
	onTargetPct := float64(m.OnTargetBases) / float64(m.PfUqBasesAligned)

	goal := (float64(coverageGoal) / meanCoverage) * fold80
	multiplier := goal
	increment := 1.0
	goingUp := goal >= 1
	final := -1.0

	// Converge the pair multiplier on the one whose unique pair multiplier
	// matches the goal.
	for i := 0; i < 10000; i++ {
		unique := estimateROI(*m.HsLibrarySize, multiplier, pairs, uniquePairs)
		if math.Abs(unique-goal) <= 0.01 {
			final = multiplier
			break
		} else if (unique > goal && goingUp) || (unique < goal && !goingUp) {
			increment /= 2
			goingUp = !goingUp
		}
		if goingUp {
			multiplier += increment
		} else {
			multiplier -= increment
		}
	}
	if final == -1 {
		return -1
	}
	uniqueFraction := (float64(uniquePairs) * goal) / (float64(pairs) * final)
	return (1 / uniqueFraction) * fold80 * (1 / onTargetPct)
}
