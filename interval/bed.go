package interval

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	gunsafe "github.com/grailbio/base/unsafe"
)

// bedColumns is the number of BED columns the reader looks at: chrom, start,
// end, name, score and strand.
const bedColumns = 6

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isBEDPreamble returns true for the comment, track and browser lines that
// may precede BED records.
func isBEDPreamble(line []byte) bool {
	return bytes.HasPrefix(line, []byte("#")) ||
		bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}

// ReadBED reads a BED file (0-based, half-open) and returns its records as
// 1-based closed intervals, in file order.  Columns beyond the sixth are
// ignored; a missing name or a "." strand leave the defaults.  Unlike an
// interval_list, a BED file may be unsorted and overlapping; use Unique to
// merge.
func ReadBED(r io.Reader) ([]Interval, error) {
	scanner := bufio.NewScanner(r)
	var (
		tokens  [bedColumns][]byte
		ivs     []Interval
		lineIdx int
	)
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isBEDPreamble(curLine) {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if nToken < 3 {
			return nil, fmt.Errorf("interval.ReadBED: line %d has fewer tokens than expected", lineIdx)
		}
		start0, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: %v", lineIdx, err)
		}
		if start0 < 0 {
			return nil, fmt.Errorf("interval.ReadBED: negative start coordinate %s on line %d", tokens[1], lineIdx)
		}
		if end < start0 {
			return nil, fmt.Errorf("interval.ReadBED: invalid coordinate pair on line %d", lineIdx)
		}
		iv := Interval{
			Contig: string(tokens[0]),
			Start:  start0 + 1,
			End:    end,
		}
		if nToken >= 4 {
			iv.Name = string(tokens[3])
		}
		if nToken >= 6 && len(tokens[5]) == 1 && tokens[5][0] == '-' {
			iv.Negative = true
		}
		ivs = append(ivs, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ivs, nil
}
