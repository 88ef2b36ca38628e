package fasta

import (
	"context"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Reference is a Fasta backed by a file.  An indexed reference keeps its
// file open until Close.
type Reference struct {
	Fasta
	in file.File
}

// Close releases the underlying file, if any.
func (r *Reference) Close(ctx context.Context) error {
	if r.in == nil {
		return nil
	}
	err := r.in.Close(ctx)
	r.in = nil
	return err
}

// Load opens the FASTA file at path.  When path+".fai" exists the reference
// is accessed through the index; otherwise the whole file, optionally
// compressed, is read into memory.
func Load(ctx context.Context, path string) (*Reference, error) {
	if _, err := file.Stat(ctx, path+".fai"); err == nil {
		return loadIndexed(ctx, path)
	}
	fa, err := loadEager(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Reference{Fasta: fa}, nil
}

func loadIndexed(ctx context.Context, path string) (ref *Reference, err error) {
	var idx file.File
	if idx, err = file.Open(ctx, path+".fai"); err != nil {
		return nil, errors.E(err, "fasta.Load", path+".fai")
	}
	defer file.CloseAndReport(ctx, idx, &err)
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "fasta.Load", path)
	}
	fa, err := NewIndexed(in.Reader(ctx), idx.Reader(ctx))
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.E(err, "fasta.Load", path)
	}
	log.Debug.Printf("fasta.Load: %s opened with index, %d sequence(s)", path, len(fa.SeqNames()))
	return &Reference{Fasta: fa, in: in}, nil
}

func loadEager(ctx context.Context, path string) (fa Fasta, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "fasta.Load", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if fa, err = New(reader); err != nil {
		return nil, errors.E(err, "fasta.Load", path)
	}
	log.Debug.Printf("fasta.Load: %s read into memory, %d sequence(s)", path, len(fa.SeqNames()))
	return fa, nil
}
