package interval

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// LoadOpts defines the behavior of Load.
type LoadOpts struct {
	// Header supplies the sequence dictionary for BED input, which carries
	// none of its own.  For interval_list input it is optional; when set, the
	// file's dictionary must agree with it.
	Header *sam.Header
}

// isBEDPath returns true if path names a BED file, possibly gzipped.
func isBEDPath(path string) bool {
	p := strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(p, ".bed")
}

// Load reads an interval_list or a BED file from path.  The format is chosen
// by suffix: ".bed" and ".bed.gz" are BED, everything else is interval_list.
// A ".gz" suffix selects gzip decompression.
func Load(ctx context.Context, path string, opts LoadOpts) (l *List, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "interval.Load", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz, gerr := gzip.NewReader(reader)
		if gerr != nil {
			return nil, errors.E(gerr, "interval.Load", path)
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}

	if isBEDPath(path) {
		if opts.Header == nil {
			return nil, errors.E(errors.Invalid, "interval.Load: BED input requires a sequence dictionary", path)
		}
		ivs, rerr := ReadBED(reader)
		if rerr != nil {
			return nil, errors.E(rerr, path)
		}
		l = &List{Header: opts.Header, Intervals: ivs}
		if err = l.validate(); err != nil {
			return nil, errors.E(err, path)
		}
	} else {
		if l, err = ReadIntervalList(reader); err != nil {
			return nil, errors.E(err, path)
		}
		if opts.Header != nil {
			if err = CheckDictionaries(path, l.Header, "dictionary", opts.Header); err != nil {
				return nil, err
			}
		}
	}
	log.Printf("interval.Load: %s loaded, %d interval(s)", path, len(l.Intervals))
	return l, nil
}

// validate checks that every interval names a known contig and fits inside
// it.
func (l *List) validate() error {
	lengths := make(map[string]int, len(l.Header.Refs()))
	for _, ref := range l.Header.Refs() {
		lengths[ref.Name()] = ref.Len()
	}
	for _, iv := range l.Intervals {
		n, ok := lengths[iv.Contig]
		if !ok {
			return errors.E(errors.Invalid, "contig not in sequence dictionary:", iv.Contig)
		}
		if iv.End > n {
			return errors.E(errors.Invalid, "interval extends past end of contig:", iv.String())
		}
	}
	return nil
}
