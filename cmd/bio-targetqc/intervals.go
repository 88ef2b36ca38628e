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
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/targetqc/encoding/bamprovider"
	"github.com/grailbio/targetqc/interval"
)

// loadDictionary reads a sequence dictionary from the header of a BAM or SAM
// file, or from a .dict or interval_list file.
func loadDictionary(ctx context.Context, path string) (*sam.Header, error) {
	if bamprovider.GuessFileType(path) != bamprovider.Unknown {
		p := bamprovider.NewProvider(path)
		h, err := p.GetHeader()
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return h, err
	}
	l, err := interval.Load(ctx, path, interval.LoadOpts{})
	if err != nil {
		return nil, err
	}
	return l.Header, nil
}

func writeIntervalList(ctx context.Context, path string, l *interval.List) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return interval.WriteIntervalList(out.Writer(ctx), l)
}

// runIntervals loads the intervals at path and writes their counts and
// territory to w.  If outPath is set, the intervals (merged, if unique) are
// written there as an interval_list.
func runIntervals(ctx context.Context, w io.Writer, path, dictPath, outPath string, unique bool) error {
	var opts interval.LoadOpts
	if dictPath != "" {
		h, err := loadDictionary(ctx, dictPath)
		if err != nil {
			return err
		}
		opts.Header = h
	}
	l, err := interval.Load(ctx, path, opts)
	if err != nil {
		return err
	}
	s, err := l.Uniqued()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "intervals\t%d\n", len(l.Intervals))
	fmt.Fprintf(w, "unique_intervals\t%d\n", s.Len())
	fmt.Fprintf(w, "territory\t%d\n", s.Territory())
	fmt.Fprintf(w, "genome_size\t%d\n", l.GenomeSize())
	if outPath == "" {
		return nil
	}
	if unique {
		l = &interval.List{Header: l.Header, Intervals: s.Intervals()}
	}
	return writeIntervalList(ctx, outPath, l)
}
