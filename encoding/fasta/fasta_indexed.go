package fasta

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// readAhead is the minimum number of bytes fetched per seek.  Target and
// window lookups walk a sequence in order, so most Gets are served from the
// cached block.
const readAhead = 64 << 10

// faiEntry is one line of a .fai index.
type faiEntry struct {
	length uint64
	// offset is the byte offset of the first base.
	offset uint64
	// lineBases and lineBytes are the bases and bytes (bases plus line
	// terminator) of every full line.
	lineBases uint64
	lineBytes uint64
}

// byteOffset returns the file offset of the 0-based base pos.
func (e faiEntry) byteOffset(pos uint64) uint64 {
	return e.offset + (pos/e.lineBases)*e.lineBytes + pos%e.lineBases
}

// parseFaiLine parses "<name>\t<length>\t<offset>\t<bases per line>\t<bytes per line>".
func parseFaiLine(line string) (string, faiEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 || fields[0] == "" {
		return "", faiEntry{}, errors.Errorf("invalid index line: %s", line)
	}
	var vals [4]uint64
	for i := range vals {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return "", faiEntry{}, errors.Wrapf(err, "invalid index line: %s", line)
		}
		vals[i] = v
	}
	e := faiEntry{length: vals[0], offset: vals[1], lineBases: vals[2], lineBytes: vals[3]}
	if e.lineBases == 0 || e.lineBytes < e.lineBases {
		return "", faiEntry{}, errors.Errorf("invalid line geometry in index line: %s", line)
	}
	return fields[0], e, nil
}

type indexedFasta struct {
	entries  map[string]faiEntry
	seqNames []string

	mu  sync.Mutex
	in  io.ReadSeeker
	off int64
	// block caches file bytes starting at off.
	block []byte
}

// NewIndexed creates a Fasta that reads bases from in on demand, using the
// samtools faidx index read from index.  in may be nil if only lengths and
// names are needed.
func NewIndexed(in io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{entries: make(map[string]faiEntry), in: in}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		name, e, err := parseFaiLine(line)
		if err != nil {
			return nil, err
		}
		if _, ok := f.entries[name]; ok {
			return nil, errors.Errorf("duplicate sequence name in index: %s", name)
		}
		f.entries[name] = e
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	// Order by position in the FASTA file.
	sort.SliceStable(f.seqNames, func(i, j int) bool {
		return f.entries[f.seqNames[i]].offset < f.entries[f.seqNames[j]].offset
	})
	return f, nil
}

// FaiToReferenceLengths returns the sequence lengths listed in a .fai index,
// without touching the FASTA file itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	f, err := NewIndexed(nil, index)
	if err != nil {
		return nil, err
	}
	return Lengths(f)
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return e.length, nil
}

// bytesAt returns the file bytes [off, off+n), refilling the cached block
// when needed.  The result aliases the cache.  REQUIRES: f.mu is held.
func (f *indexedFasta) bytesAt(off int64, n int) ([]byte, error) {
	if off >= f.off && off+int64(n) <= f.off+int64(len(f.block)) {
		return f.block[off-f.off : off-f.off+int64(n)], nil
	}
	if f.in == nil {
		return nil, errors.New("FASTA opened without data")
	}
	if got, err := f.in.Seek(off, io.SeekStart); err != nil || got != off {
		return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, got, err)
	}
	size := readAhead
	if n > size {
		size = n
	}
	if cap(f.block) < size {
		f.block = make([]byte, size)
	}
	f.block = f.block[:size]
	nRead, err := io.ReadFull(f.in, f.block)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	f.off, f.block = off, f.block[:nRead]
	if nRead < n {
		return nil, errors.Errorf("encountered unexpected end of file (bad index? file doesn't end in newline?)")
	}
	return f.block[:n], nil
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > e.length {
		return "", errors.Errorf("end is past end of sequence %s: %d", seqName, e.length)
	}
	first, last := e.byteOffset(start), e.byteOffset(end-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := f.bytesAt(int64(first), int(last-first+1))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(int(end - start))
	// col is the position of raw[i] within its line.
	col := (first - e.offset) % e.lineBytes
	for _, c := range raw {
		if col < e.lineBases {
			if 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
		}
		if col++; col == e.lineBytes {
			col = 0
		}
	}
	return b.String(), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
