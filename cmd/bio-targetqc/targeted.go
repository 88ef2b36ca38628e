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

package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/targetqc/encoding/bamprovider"
	"github.com/grailbio/targetqc/encoding/fasta"
	"github.com/grailbio/targetqc/interval"
	"github.com/grailbio/targetqc/metrics"
	"github.com/grailbio/targetqc/targeted"
)

// assay selects the metrics record written by runTargeted.
type assay int

const (
	hsAssay assay = iota
	pcrAssay
)

func (a assay) String() string {
	if a == pcrAssay {
		return "pcr"
	}
	return "hs"
}

type targetedFlags struct {
	probes    *string
	targets   *string
	reference *string
	out       *string
	levels    *string
}

// probeSetName derives a probe set name from a path, e.g. "baits" for
// "s3://bucket/baits.interval_list.gz".
func probeSetName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// loadReference loads the FASTA at path.  It returns a nil Fasta for an
// empty path.
func loadReference(ctx context.Context, path string) (fasta.Fasta, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	ref, err := fasta.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return ref, func() error { return ref.Close(ctx) }, nil
}

func runTargeted(ctx context.Context, a assay, bamPath string, flags targetedFlags, opts targeted.Opts) (err error) {
	if *flags.probes == "" || *flags.targets == "" || *flags.out == "" {
		return errors.E(errors.Invalid, "-probes, -targets and -out are required")
	}
	provider := bamprovider.NewProvider(bamPath)
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	header, err := provider.GetHeader()
	if err != nil {
		return err
	}
	probes, err := interval.Load(ctx, *flags.probes, interval.LoadOpts{Header: header})
	if err != nil {
		return err
	}
	targets, err := interval.Load(ctx, *flags.targets, interval.LoadOpts{Header: header})
	if err != nil {
		return err
	}
	if opts.ProbeSetName == "" {
		opts.ProbeSetName = probeSetName(*flags.probes)
	}
	ref, closeRef, err := loadReference(ctx, *flags.reference)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeRef(); e != nil && err == nil {
			err = e
		}
	}()

	c, err := targeted.NewCollector(opts, header, probes, targets, ref)
	if err != nil {
		return err
	}
	if err = bamprovider.ForEach(provider, c.AcceptRecord); err != nil {
		return errors.E(err, bamPath)
	}
	if err = c.Finish(); err != nil {
		return err
	}

	f := metrics.NewFile(commandLine())
	switch a {
	case hsAssay:
		err = targeted.AddHsMetrics(f, c.Metrics(), opts.CoverageCap)
	case pcrAssay:
		err = targeted.AddTargetedPcrMetrics(f, c.Metrics(), opts.CoverageCap)
	}
	if err != nil {
		return err
	}
	// The metrics file goes last; it is absent if any table fails.
	if opts.PerTargetCoverage != "" {
		if err = c.WritePerTargetCoverage(ctx, opts.PerTargetCoverage); err != nil {
			return err
		}
	}
	if opts.PerBaseCoverage != "" {
		if err = c.WritePerBaseCoverage(ctx, opts.PerBaseCoverage); err != nil {
			return err
		}
	}
	if err = f.WriteFile(ctx, *flags.out); err != nil {
		return err
	}
	log.Printf("%v: wrote %d unit(s) to %s", a, len(c.Metrics()), *flags.out)
	return nil
}
