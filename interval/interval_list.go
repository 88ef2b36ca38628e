package interval

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/sam"
)

// List is the contents of a Picard-style interval_list file: a SAM header
// carrying the sequence dictionary, followed by 1-based closed intervals.
type List struct {
	Header    *sam.Header
	Intervals []Interval
}

// GenomeSize returns the sum of the dictionary's reference lengths.
func (l *List) GenomeSize() int64 {
	if l.Header == nil {
		return 0
	}
	var n int64
	for _, ref := range l.Header.Refs() {
		n += int64(ref.Len())
	}
	return n
}

// Uniqued returns the merged form of the list's intervals.
func (l *List) Uniqued() (Set, error) {
	return Unique(l.Header, l.Intervals)
}

// ReadIntervalList parses an interval_list.  Every interval must name a
// contig present in the header.
func ReadIntervalList(r io.Reader) (*List, error) {
	var (
		text    bytes.Buffer
		ivs     []Interval
		tokens  [5][]byte
		lineIdx int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineIdx++
		line := scanner.Bytes()
		if len(line) > 0 && line[0] == '@' {
			if len(ivs) > 0 {
				return nil, fmt.Errorf("interval.ReadIntervalList: header line %d after intervals", lineIdx)
			}
			text.Write(line)
			text.WriteByte('\n')
			continue
		}
		nToken := getTokens(tokens[:], line)
		if nToken == 0 {
			continue
		}
		if nToken < 3 {
			return nil, fmt.Errorf("interval.ReadIntervalList: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(string(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadIntervalList: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(string(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadIntervalList: line %d: %v", lineIdx, err)
		}
		iv := Interval{Contig: string(tokens[0]), Start: start, End: end}
		if nToken >= 4 && string(tokens[3]) == "-" {
			iv.Negative = true
		}
		if nToken >= 5 && string(tokens[4]) != "." {
			iv.Name = string(tokens[4])
		}
		ivs = append(ivs, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	header, err := sam.NewHeader(text.Bytes(), nil)
	if err != nil {
		return nil, errors.E(err, "interval.ReadIntervalList: parsing header")
	}
	if len(header.Refs()) == 0 {
		return nil, errors.E(errors.Invalid, "interval.ReadIntervalList: no sequence dictionary")
	}
	known := make(map[string]int, len(header.Refs()))
	for _, ref := range header.Refs() {
		known[ref.Name()] = ref.Len()
	}
	for _, iv := range ivs {
		n, ok := known[iv.Contig]
		if !ok {
			return nil, errors.E(errors.Invalid, "interval.ReadIntervalList: contig not in sequence dictionary:", iv.Contig)
		}
		if iv.Start < 1 || iv.End < iv.Start-1 || iv.End > n {
			return nil, errors.E(errors.Invalid, "interval.ReadIntervalList: interval out of bounds:", iv.String())
		}
	}
	return &List{Header: header, Intervals: ivs}, nil
}

// WriteIntervalList writes l in interval_list form.  Unnamed intervals are
// written with a "." name.
func WriteIntervalList(w io.Writer, l *List) error {
	if l.Header != nil {
		text, err := l.Header.MarshalText()
		if err != nil {
			return err
		}
		if _, err := w.Write(text); err != nil {
			return err
		}
	}
	tw := tsv.NewWriter(w)
	for _, iv := range l.Intervals {
		tw.WriteString(iv.Contig)
		tw.WriteInt64(int64(iv.Start))
		tw.WriteInt64(int64(iv.End))
		tw.WriteByte(iv.strand())
		name := iv.Name
		if name == "" {
			name = "."
		}
		tw.WriteString(name)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
