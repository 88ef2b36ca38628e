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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/targetqc/encoding/bamprovider"
	"github.com/grailbio/targetqc/gcbias"
	"github.com/grailbio/targetqc/metrics"
)

type gcBiasFlags struct {
	reference *string
	out       *string
	summary   *string
	levels    *string
}

func runGcBias(ctx context.Context, bamPath string, flags gcBiasFlags, opts gcbias.Opts) (err error) {
	if *flags.reference == "" || *flags.out == "" {
		return errors.E(errors.Invalid, "-reference and -out are required")
	}
	summaryPath := *flags.summary
	if summaryPath == "" {
		summaryPath = *flags.out + ".summary"
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
	ref, closeRef, err := loadReference(ctx, *flags.reference)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeRef(); e != nil && err == nil {
			err = e
		}
	}()

	c, err := gcbias.NewCollector(ctx, opts, header, ref)
	if err != nil {
		return err
	}
	if err = bamprovider.ForEach(provider, c.AcceptRecord); err != nil {
		return errors.E(err, bamPath)
	}
	if err = c.Finish(); err != nil {
		return err
	}
	results := c.Results()

	detail := metrics.NewFile(commandLine())
	if err = gcbias.AddDetails(detail, results); err != nil {
		return err
	}
	summary := metrics.NewFile(commandLine())
	if err = gcbias.AddSummary(summary, results); err != nil {
		return err
	}
	if err = detail.WriteFile(ctx, *flags.out); err != nil {
		return err
	}
	if err = summary.WriteFile(ctx, summaryPath); err != nil {
		return err
	}
	log.Printf("gcbias: wrote %d result set(s) to %s and %s", len(results), *flags.out, summaryPath)
	return nil
}
