package metrics

import (
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"gopkg.in/fatih/set.v0"
)

// AccumulationLevel is the granularity at which metrics are reported.
type AccumulationLevel int

const (
	// AllReads aggregates every read in the input.
	AllReads AccumulationLevel = iota
	// Sample aggregates the read groups sharing an SM value.
	Sample
	// Library aggregates the read groups sharing an LB value.
	Library
	// ReadGroup reports each read group on its own.
	ReadGroup
)

var levelNames = []string{"ALL_READS", "SAMPLE", "LIBRARY", "READ_GROUP"}

// String returns the level's name as written in metric files.
func (l AccumulationLevel) String() string {
	if l < AllReads || l > ReadGroup {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (AccumulationLevel, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, s) {
			return AccumulationLevel(i), nil
		}
	}
	return 0, errors.E(errors.Invalid, "metrics: unknown accumulation level:", s)
}

// ParseLevels parses a comma-separated list of level names.  Duplicates are
// dropped and the result is in canonical order: ALL_READS, SAMPLE, LIBRARY,
// READ_GROUP.  An empty list is an error.
func ParseLevels(s string) ([]AccumulationLevel, error) {
	seen := set.New(set.NonThreadSafe)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		l, err := ParseLevel(tok)
		if err != nil {
			return nil, err
		}
		seen.Add(l)
	}
	return normalizeLevels(seen)
}

// NormalizeLevels deduplicates and sorts levels.
func NormalizeLevels(levels []AccumulationLevel) ([]AccumulationLevel, error) {
	seen := set.New(set.NonThreadSafe)
	for _, l := range levels {
		if l < AllReads || l > ReadGroup {
			return nil, errors.E(errors.Invalid, "metrics: unknown accumulation level", int(l))
		}
		seen.Add(l)
	}
	return normalizeLevels(seen)
}

func normalizeLevels(seen set.Interface) ([]AccumulationLevel, error) {
	if seen.Size() == 0 {
		return nil, errors.E(errors.Invalid, "metrics: no accumulation levels")
	}
	levels := make([]AccumulationLevel, 0, seen.Size())
	for _, l := range seen.List() {
		levels = append(levels, l.(AccumulationLevel))
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels, nil
}
