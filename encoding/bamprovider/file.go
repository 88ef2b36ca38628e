package bamprovider

import (
	"io"
	"sync"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// recordReader is the subset of bam.Reader and sam.Reader used here.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// fileProvider implements Provider for BAM and SAM files.  The path may be
// any URL registered with grailbio/base/file.
type fileProvider struct {
	path     string
	fileType FileType
	err      errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type fileIterator struct {
	provider *fileProvider
	in       file.File
	closers  []io.Closer
	reader   recordReader
	rec      *sam.Record
	err      error
}

// open opens the file and wraps it in the right record reader.
func (b *fileProvider) open() (*fileIterator, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.path)
	if err != nil {
		return nil, errors.E(err, "bamprovider: open", b.path)
	}
	it := &fileIterator{provider: b, in: in}
	switch b.fileType {
	case SAM:
		rc, _ := compress.NewReader(in.Reader(ctx))
		it.closers = append(it.closers, rc)
		r, err := sam.NewReader(rc)
		if err != nil {
			it.internalClose()
			return nil, errors.E(err, "bamprovider: reading SAM header", b.path)
		}
		it.reader = r
	default:
		r, err := bam.NewReader(in.Reader(ctx), 1)
		if err != nil {
			it.internalClose()
			return nil, errors.E(err, "bamprovider: reading BAM header", b.path)
		}
		it.closers = append(it.closers, r)
		it.reader = r
	}
	return it, nil
}

// GetHeader implements the Provider interface.
func (b *fileProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}
	it, err := b.open()
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	b.header = it.reader.Header()
	it.internalClose()
	return b.header, nil
}

// NewIterator implements the Provider interface.
func (b *fileProvider) NewIterator() Iterator {
	it, err := b.open()
	if err != nil {
		b.err.Set(err)
		return NewErrorIterator(err)
	}
	b.mu.Lock()
	b.nActive++
	if b.header == nil {
		b.header = it.reader.Header()
	}
	b.mu.Unlock()
	return it
}

// Close implements the Provider interface.
func (b *fileProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		log.Panicf("bamprovider: %d iterators still active for %s", b.nActive, b.path)
	}
	return b.err.Err()
}

// Scan implements the Iterator interface.
func (i *fileIterator) Scan() bool {
	if i.err != nil {
		return false
	}
	i.rec, i.err = i.reader.Read()
	return i.err == nil
}

// Record implements the Iterator interface.
func (i *fileIterator) Record() *sam.Record {
	return i.rec
}

// Err implements the Iterator interface.
func (i *fileIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *fileIterator) Close() error {
	i.internalClose()
	b := i.provider
	b.mu.Lock()
	b.nActive--
	b.mu.Unlock()
	return i.Err()
}

func (i *fileIterator) internalClose() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j].Close(); err != nil {
			i.provider.err.Set(err)
		}
	}
	i.closers = nil
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil {
			i.provider.err.Set(err)
		}
		i.in = nil
	}
	if err := i.Err(); err != nil {
		i.provider.err.Set(err)
	}
}

type errorIterator struct {
	err error
}

func (i *errorIterator) Scan() bool          { return false }
func (i *errorIterator) Record() *sam.Record { panic("shall not be called") }
func (i *errorIterator) Err() error          { return i.err }
func (i *errorIterator) Close() error        { return i.err }

// NewErrorIterator creates an Iterator that yields no record and returns "err"
// in Err and Close.
func NewErrorIterator(err error) Iterator {
	return &errorIterator{err: err}
}
