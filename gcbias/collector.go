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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/targetqc/encoding/fasta"
	"github.com/grailbio/targetqc/interval"
	"github.com/grailbio/targetqc/metrics"
	"github.com/grailbio/targetqc/targeted"
)

// Reads used values.
const (
	AllReadsUsed    = "ALL"
	UniqueReadsUsed = "UNIQUE"
)

// tallies are the per-unit counters.
type tallies struct {
	totalClusters int64
	alignedReads  int64
	reads         [metrics.GCBins]int64
	bases         [metrics.GCBins]int64
	errors        [metrics.GCBins]int64
}

// contribution is what one record adds to every unit it feeds.
type contribution struct {
	cluster bool
	aligned bool
	// bin is the GC of the window at the read start, or -1.
	bin    int
	bases  int64
	errors int64
}

func (t *tallies) add(c *contribution) {
	if c.cluster {
		t.totalClusters++
	}
	if !c.aligned {
		return
	}
	t.alignedReads++
	if c.bin >= 0 {
		t.reads[c.bin]++
		t.bases[c.bin] += c.bases
		t.errors[c.bin] += c.errors
	}
}

// Collector accumulates read starts by window GC, for every configured unit.
type Collector struct {
	opts     Opts
	ref      fasta.Fasta
	windows  *Windows
	resolver *metrics.Resolver
	all      []tallies
	// unique is nil unless opts.IgnoreDuplicates.
	unique   []tallies
	nRecords int64
	finished bool
	results  []Result
}

// NewCollector computes the reference windows and creates a Collector for
// reads described by header.  Every reference in header must be present in
// ref with the same length.
func NewCollector(ctx context.Context, opts Opts, header *sam.Header, ref fasta.Fasta) (*Collector, error) {
	if ref == nil {
		return nil, errors.E(errors.Invalid, "gcbias: a reference is required")
	}
	lengths, err := fasta.Lengths(ref)
	if err != nil {
		return nil, err
	}
	if err := interval.CheckContigLengths(header, "reference", lengths); err != nil {
		return nil, err
	}
	resolver, err := metrics.NewResolver(header, opts.Levels)
	if err != nil {
		return nil, err
	}
	windows, err := ComputeWindows(ctx, ref, opts.WindowSize, opts.Parallelism)
	if err != nil {
		return nil, err
	}
	c := &Collector{
		opts:     opts,
		ref:      ref,
		windows:  windows,
		resolver: resolver,
		all:      make([]tallies, len(resolver.Units())),
	}
	if opts.IgnoreDuplicates {
		c.unique = make([]tallies, len(resolver.Units()))
	}
	return c, nil
}

// Windows returns the reference windows.
func (c *Collector) Windows() *Windows { return c.windows }

// AcceptRecord adds rec to every unit it feeds.
func (c *Collector) AcceptRecord(rec *sam.Record) error {
	if c.finished {
		return errors.E(errors.Invalid, "gcbias: record accepted after Finish")
	}
	if c.opts.StopAfter > 0 && c.nRecords >= c.opts.StopAfter {
		return nil
	}
	c.nRecords++
	units, err := c.resolver.Route(rec)
	if err != nil {
		return err
	}
	if rec.Flags&(sam.Secondary|sam.Supplementary|sam.QCFail) != 0 {
		return nil
	}
	var contrib contribution
	if err := c.contribution(rec, &contrib); err != nil {
		return err
	}
	dup := rec.Flags&sam.Duplicate != 0
	for _, u := range units {
		c.all[u].add(&contrib)
		if c.unique != nil && !dup {
			c.unique[u].add(&contrib)
		}
	}
	return nil
}

func (c *Collector) contribution(rec *sam.Record, contrib *contribution) error {
	contrib.cluster = rec.Flags&sam.Paired == 0 || rec.Flags&sam.Read1 != 0
	contrib.bin = -1
	if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil {
		return nil
	}
	contrib.aligned = true
	var pos int
	if rec.Flags&sam.Reverse != 0 {
		pos = rec.End() - c.windows.Size
	} else {
		pos = rec.Pos + 1
	}
	contrib.bin = c.windows.GC(rec.Ref.Name(), pos)
	if contrib.bin < 0 {
		return nil
	}
	contrib.bases = int64(readLength(rec))
	mismatches, err := c.countMismatches(rec)
	if err != nil {
		return err
	}
	contrib.errors = mismatches
	for _, co := range rec.Cigar {
		switch co.Type() {
		case sam.CigarInsertion, sam.CigarDeletion:
			contrib.errors += int64(co.Len())
		}
	}
	return nil
}

func readLength(rec *sam.Record) int {
	if rec.Seq.Length > 0 {
		return rec.Seq.Length
	}
	_, n := rec.Cigar.Lengths()
	return n
}

// countMismatches returns the number of aligned read bases that differ from
// the reference.  Reads without stored bases have none.
func (c *Collector) countMismatches(rec *sam.Record) (int64, error) {
	if rec.Seq.Length == 0 {
		return 0, nil
	}
	seq := rec.Seq.Expand()
	negative := rec.Flags&sam.Reverse != 0
	var n int64
	for _, b := range targeted.AlignmentBlocks(rec) {
		ref, err := c.ref.Get(rec.Ref.Name(), uint64(b.RefStart-1), uint64(b.RefStart-1+b.Length))
		if err != nil {
			return 0, errors.E(err, fmt.Sprintf("gcbias: reference bases for %s", rec.Name))
		}
		for i := 0; i < b.Length && b.ReadStart+i < len(seq); i++ {
			if !basesMatch(seq[b.ReadStart+i], ref[i], negative, c.opts.Bisulfite) {
				n++
			}
		}
	}
	return n, nil
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// basesMatch compares a read base to a reference base.  In bisulfite mode a
// T read against a C reference (an A against a G on the reverse strand) is a
// match.
func basesMatch(read, ref byte, negative, bisulfite bool) bool {
	read, ref = upper(read), upper(ref)
	if read == ref {
		return true
	}
	if !bisulfite {
		return false
	}
	if negative {
		return ref == 'G' && read == 'A'
	}
	return ref == 'C' && read == 'T'
}

// Finish computes the metrics.  Calling it again returns the same results.
func (c *Collector) Finish() error {
	if c.finished {
		return nil
	}
	c.finished = true
	units := c.resolver.Units()
	for i, u := range units {
		if r, ok := c.result(u, AllReadsUsed, &c.all[i]); ok {
			c.results = append(c.results, r)
		}
	}
	for i, u := range units {
		if c.unique == nil {
			break
		}
		if r, ok := c.result(u, UniqueReadsUsed, &c.unique[i]); ok {
			c.results = append(c.results, r)
		}
	}
	log.Printf("gcbias: %d record(s), %d result set(s)", c.nRecords, len(c.results))
	return nil
}

// Results returns the computed metrics, one per unit with aligned reads and
// per reads-used value.  It returns nil before Finish.
func (c *Collector) Results() []Result {
	return c.results
}
