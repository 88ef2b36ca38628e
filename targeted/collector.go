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

import (
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/targetqc/encoding/fasta"
	"github.com/grailbio/targetqc/interval"
	"github.com/grailbio/targetqc/metrics"
)

// Collector accumulates targeted coverage metrics over a stream of records.
// It is not safe for concurrent use.
type Collector struct {
	opts        Opts
	geom        geometry
	targetIndex *interval.OverlapIndex
	probeIndex  *interval.OverlapIndex
	resolver    *metrics.Resolver
	units       []*unitState

	nRecords int64
	finished bool
	results  []TargetMetrics
}

// NewCollector validates the inputs and sets up one accumulation unit per
// configured level value.  header is the read file's header; its sequence
// dictionary must match those of probes and targets.  ref may be nil, in
// which case GC dropout is not computed.
func NewCollector(opts Opts, header *sam.Header, probes, targets *interval.List, ref fasta.Fasta) (*Collector, error) {
	if targets == nil || len(targets.Intervals) == 0 {
		return nil, errors.E(errors.Invalid, "targeted: no target intervals")
	}
	if probes == nil || len(probes.Intervals) == 0 {
		return nil, errors.E(errors.Invalid, "targeted: no probe intervals")
	}
	if opts.NearDistance < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("targeted: negative near distance %d", opts.NearDistance))
	}
	if err := interval.CheckDictionaries("reads", header, "targets", targets.Header); err != nil {
		return nil, err
	}
	if err := interval.CheckDictionaries("reads", header, "probes", probes.Header); err != nil {
		return nil, err
	}
	targetSet, err := targets.Uniqued()
	if err != nil {
		return nil, err
	}
	if targetSet.Territory() <= 0 {
		return nil, ErrDegenerateTargets
	}
	probeSet, err := probes.Uniqued()
	if err != nil {
		return nil, err
	}
	c := &Collector{
		opts: opts,
		geom: geometry{
			targets:      targetSet,
			probes:       probeSet,
			genomeSize:   targets.GenomeSize(),
			probeSetName: opts.ProbeSetName,
		},
	}
	if c.targetIndex, err = interval.NewOverlapIndex(targetSet, 0); err != nil {
		return nil, err
	}
	if c.probeIndex, err = interval.NewOverlapIndex(probeSet, opts.NearDistance); err != nil {
		return nil, err
	}
	if c.resolver, err = metrics.NewResolver(header, opts.Levels); err != nil {
		return nil, err
	}
	if ref != nil {
		lengths, err := fasta.Lengths(ref)
		if err != nil {
			return nil, err
		}
		if err := interval.CheckContigLengths(targets.Header, "reference", lengths); err != nil {
			return nil, err
		}
		if c.geom.gc, err = targetGC(ref, targetSet.Intervals(), opts.Parallelism); err != nil {
			return nil, err
		}
	}
	for range c.resolver.Units() {
		c.units = append(c.units, newUnitState(targetSet.Intervals()))
	}
	log.Printf("targeted: %d target(s), territory %d; %d probe(s), territory %d; %d unit(s)",
		targetSet.Len(), targetSet.Territory(), probeSet.Len(), probeSet.Territory(), len(c.units))
	return c, nil
}

func parallelism(p int) int {
	if p <= 0 {
		return runtime.NumCPU()
	}
	return p
}

// targetGC computes the GC fraction of each target.  Zero-length targets
// get NaN.
func targetGC(ref fasta.Fasta, targets []interval.Interval, p int) ([]float64, error) {
	gc := make([]float64, len(targets))
	nWorkers := parallelism(p)
	if nWorkers > len(targets) {
		nWorkers = len(targets)
	}
	err := traverse.Each(nWorkers, func(worker int) error {
		for i := worker; i < len(targets); i += nWorkers {
			t := targets[i]
			seq, err := ref.Get(t.Contig, uint64(t.Start-1), uint64(t.End))
			if err != nil {
				return errors.E(err, "targeted: reading reference for", t.String())
			}
			gc[i] = fasta.GCFraction(seq)
		}
		return nil
	})
	return gc, err
}

// AcceptRecord adds one record.  A record whose read group is missing from
// the header is an error.
func (c *Collector) AcceptRecord(rec *sam.Record) error {
	if c.finished {
		return errors.E(errors.Invalid, "targeted: record accepted after Finish")
	}
	if c.opts.StopAfter > 0 && c.nRecords >= c.opts.StopAfter {
		return nil
	}
	c.nRecords++
	unitIdx, err := c.resolver.Route(rec)
	if err != nil {
		return err
	}
	if len(unitIdx) == 0 || rec.Flags&sam.Secondary != 0 {
		return nil
	}
	if int(rec.MapQ) < c.opts.MinMappingQuality {
		n := int64(readLength(rec))
		for _, i := range unitIdx {
			c.units[i].excludedMapQBases += n
			c.units[i].basesExamined += n
		}
		return nil
	}
	r := read{rec: rec, view: ClipOverlap(rec, c.opts.ClipOverlappingReads)}
	if !r.view.Unmapped {
		contig := rec.Ref.Name()
		r.targets = c.targetIndex.QueryIndexes(contig, r.view.Start, r.view.End)
		r.probes = c.probeIndex.QueryIndexes(contig, r.view.Start, r.view.End)
	}
	targets, probes := c.geom.targets.Intervals(), c.geom.probes.Intervals()
	for _, i := range unitIdx {
		c.units[i].classify(&r, &c.opts, targets, probes)
	}
	return nil
}

// Finish summarizes every unit.  Units are summarized in parallel.  Finish
// may be called more than once; each call recomputes the same results.
func (c *Collector) Finish() error {
	c.finished = true
	units := c.resolver.Units()
	results := make([]TargetMetrics, len(units))
	err := traverse.Each(len(units), func(i int) error {
		m, err := c.units[i].summarize(units[i], &c.geom)
		if err != nil {
			return err
		}
		results[i] = m
		return nil
	})
	if err != nil {
		return err
	}
	c.results = results
	log.Debug.Printf("targeted: summarized %d unit(s) from %d record(s)", len(units), c.nRecords)
	return nil
}

// Metrics returns the results of Finish, one per unit in output order.
func (c *Collector) Metrics() []TargetMetrics {
	return c.results
}
