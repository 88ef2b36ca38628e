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

package gcbias

import (
	"context"
	"runtime"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/targetqc/encoding/fasta"
	"github.com/grailbio/targetqc/metrics"
	"golang.org/x/sync/errgroup"
)

// maxWindowN is the number of N bases above which a window has no GC value.
const maxWindowN = 4

// GcState carries base counts from one CalculateGc call to the next, so that
// sliding the window by one base costs O(1).  The zero value starts a new
// scan.
type GcState struct {
	init            bool
	gcCount, nCount int
}

// add counts b with weight n.  Only N is a no-call; other ambiguity codes
// count as neither GC nor N.
func (s *GcState) add(b byte, n int) {
	switch b {
	case 'G', 'C', 'g', 'c':
		s.gcCount += n
	case 'N', 'n':
		s.nCount += n
	}
}

// CalculateGc returns the GC percentage, rounded down, of bases[start:end].
// It returns -1 if the window holds more than four N bases.  Calls sharing
// a state must advance the window by exactly one base each time.
func CalculateGc(bases string, start, end int, state *GcState) int {
	if !state.init {
		state.init = true
		state.gcCount, state.nCount = 0, 0
		for i := start; i < end; i++ {
			state.add(bases[i], 1)
		}
	} else {
		state.add(bases[start-1], -1)
		state.add(bases[end-1], 1)
	}
	if state.nCount > maxWindowN {
		return -1
	}
	return state.gcCount * 100 / (end - start)
}

// Windows holds the GC of every reference window and the genome-wide count
// of windows per GC percentage.
type Windows struct {
	// Size is the window length.
	Size int
	// Counts is the number of windows at each GC percentage.
	Counts [metrics.GCBins]int64
	gc     map[string][]int8
}

// GC returns the GC percentage of the window starting at the 1-based
// position pos of contig, or -1 if that window has no GC value.
func (w *Windows) GC(contig string, pos int) int {
	gc := w.gc[contig]
	if pos <= 0 || pos >= len(gc) {
		return -1
	}
	return int(gc[pos])
}

// contigGC computes the window GC values of one sequence.  The value at
// index i is the GC of bases[i:i+size], for i in [1, len-size); every other
// index holds -1.
func contigGC(bases string, size int) ([]int8, [metrics.GCBins]int64) {
	var counts [metrics.GCBins]int64
	gc := make([]int8, len(bases)+1)
	for i := range gc {
		gc[i] = -1
	}
	var state GcState
	last := len(bases) - size
	for i := 1; i < last; i++ {
		v := CalculateGc(bases, i, i+size, &state)
		gc[i] = int8(v)
		if v >= 0 {
			counts[v]++
		}
	}
	return gc, counts
}

// ComputeWindows computes the window GC values of every sequence in ref.
// Sequences are processed concurrently, at most parallelism at a time (one
// per CPU when zero).
func ComputeWindows(ctx context.Context, ref fasta.Fasta, size, parallelism int) (*Windows, error) {
	if size <= 0 {
		return nil, errors.E(errors.Invalid, "gcbias: window size must be positive")
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	names := append([]string(nil), ref.SeqNames()...)
	sort.Strings(names)
	var (
		gcs    = make([][]int8, len(names))
		counts = make([][metrics.GCBins]int64, len(names))
		sem    = make(chan struct{}, parallelism)
	)
	g, ctx := errgroup.WithContext(ctx)
	for i := range names {
		i := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()
			n, err := ref.Len(names[i])
			if err != nil {
				return err
			}
			var bases string
			if n > 0 {
				if bases, err = ref.Get(names[i], 0, n); err != nil {
					return errors.E(err, "gcbias: reading", names[i])
				}
			}
			gcs[i], counts[i] = contigGC(bases, size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	w := &Windows{Size: size, gc: make(map[string][]int8, len(names))}
	for i, name := range names {
		w.gc[name] = gcs[i]
		for b, c := range counts[i] {
			w.Counts[b] += c
		}
	}
	log.Printf("gcbias: computed %d-base windows over %d sequence(s)", size, len(names))
	return w, nil
}
