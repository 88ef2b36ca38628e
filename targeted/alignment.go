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
	"github.com/grailbio/hts/sam"
)

// Block is a gapless stretch of a read aligned to the reference.
type Block struct {
	// RefStart is the 1-based reference position of the first base.
	RefStart int
	// ReadStart is the 0-based offset of the first base in the read.
	ReadStart int
	Length    int
}

// RefEnd returns the 1-based inclusive reference position of the last base.
func (b Block) RefEnd() int { return b.RefStart + b.Length - 1 }

// AlignmentBlocks returns the aligned blocks of rec, in reference order.
// Match, sequence-match and mismatch operations produce blocks; insertions
// and soft clips advance the read; deletions and skips advance the
// reference.
func AlignmentBlocks(rec *sam.Record) []Block {
	var (
		blocks  []Block
		refPos  = rec.Pos + 1
		readPos = 0
	)
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			blocks = append(blocks, Block{RefStart: refPos, ReadStart: readPos, Length: n})
			refPos += n
			readPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			refPos += n
		}
	}
	return blocks
}

// ClippedView is a read's alignment after overlap clipping.  The record
// itself is never modified.
type ClippedView struct {
	Unmapped bool
	// Start and End are the 1-based inclusive reference span of Blocks.
	Start, End int
	Blocks     []Block
}

func isMapped(rec *sam.Record) bool {
	return rec.Flags&sam.Unmapped == 0 && rec.Ref != nil && rec.Pos >= 0
}

func viewOf(rec *sam.Record) ClippedView {
	if !isMapped(rec) {
		return ClippedView{Unmapped: true}
	}
	v := ClippedView{Blocks: AlignmentBlocks(rec), Start: rec.Pos + 1, End: rec.Pos}
	if n := len(v.Blocks); n > 0 {
		v.Start = v.Blocks[0].RefStart
		v.End = v.Blocks[n-1].RefEnd()
	} else {
		v.Unmapped = true
	}
	return v
}

// ClipOverlap returns the view of rec used for counting.  When clip is set
// and rec is the left-most, first-of-pair read of a pair whose mate aligns
// to the same reference and overlaps it, the bases from the mate's start
// onward are treated as soft-clipped, so the overlap is counted only once
// (from the mate).  If the mate starts at or before rec, the view is
// unmapped.
func ClipOverlap(rec *sam.Record, clip bool) ClippedView {
	v := viewOf(rec)
	if !clip || v.Unmapped {
		return v
	}
	if rec.Flags&sam.Paired == 0 || rec.Flags&sam.Read2 != 0 {
		return v
	}
	if rec.Flags&sam.MateUnmapped != 0 || rec.MateRef != rec.Ref || rec.MatePos < 0 {
		return v
	}
	mateStart := rec.MatePos + 1
	if mateStart < v.Start {
		// Right-most read.
		return v
	}
	if mateStart-v.End+1 > 0 {
		// Left-most, not overlapping.
		return v
	}
	if mateStart <= v.Start {
		return ClippedView{Unmapped: true}
	}
	clipped := ClippedView{Start: v.Start}
	for _, b := range v.Blocks {
		if b.RefStart >= mateStart {
			break
		}
		if b.RefEnd() >= mateStart {
			b.Length = mateStart - b.RefStart
		}
		clipped.Blocks = append(clipped.Blocks, b)
	}
	if len(clipped.Blocks) == 0 {
		return ClippedView{Unmapped: true}
	}
	clipped.End = clipped.Blocks[len(clipped.Blocks)-1].RefEnd()
	return clipped
}
