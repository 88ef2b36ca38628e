package metrics

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Unit identifies one set of accumulated metrics.  For a given level at most
// one of Sample, Library and ReadGroup is set; the AllReads unit has none.
type Unit struct {
	Level     AccumulationLevel
	Sample    string
	Library   string
	ReadGroup string
}

// String returns a human-readable label, e.g. "SAMPLE:NA12878".
func (u Unit) String() string {
	switch u.Level {
	case Sample:
		return fmt.Sprintf("%v:%s", u.Level, u.Sample)
	case Library:
		return fmt.Sprintf("%v:%s", u.Level, u.Library)
	case ReadGroup:
		return fmt.Sprintf("%v:%s", u.Level, u.ReadGroup)
	}
	return u.Level.String()
}

var (
	rgTag     = sam.NewTag("RG")
	sampleTag = sam.NewTag("SM")
)

// readGroupUnit returns the platform unit of rg, falling back to its ID.
func readGroupUnit(rg *sam.ReadGroup) string {
	if pu := rg.PlatformUnit(); pu != "" {
		return pu
	}
	return rg.Name()
}

// Resolver maps records to the units they feed.  It is built once from the
// header and is read-only afterwards.
type Resolver struct {
	units []Unit
	// byRG maps a read group ID to the indexes of its units, including the
	// AllReads unit when configured.
	byRG map[string][]int
	// noRG holds the units fed by records without an RG tag.
	noRG []int
}

// NewResolver creates one unit per configured level value present in h's
// read groups.  Units are ordered by level, then by first appearance in the
// header.  Read groups with an empty value for a level feed no unit at that
// level.  Configuring a level other than AllReads for a header without read
// groups is an error.
func NewResolver(h *sam.Header, levels []AccumulationLevel) (*Resolver, error) {
	levels, err := NormalizeLevels(levels)
	if err != nil {
		return nil, err
	}
	r := &Resolver{byRG: make(map[string][]int)}
	rgs := h.RGs()
	if len(rgs) == 0 && (len(levels) > 1 || levels[0] != AllReads) {
		return nil, errors.E(errors.Invalid, "metrics: per-sample, per-library or per-read-group levels need read groups in the header")
	}
	for _, level := range levels {
		index := make(map[string]int)
		for _, rg := range rgs {
			var u Unit
			var key string
			switch level {
			case AllReads:
				u = Unit{Level: AllReads}
			case Sample:
				key = rg.Get(sampleTag)
				u = Unit{Level: Sample, Sample: key}
			case Library:
				key = rg.Library()
				u = Unit{Level: Library, Library: key}
			case ReadGroup:
				key = readGroupUnit(rg)
				u = Unit{Level: ReadGroup, ReadGroup: key}
			}
			if level != AllReads && key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(r.units)
				index[key] = i
				r.units = append(r.units, u)
			}
			r.byRG[rg.Name()] = append(r.byRG[rg.Name()], i)
		}
		if level == AllReads {
			if len(rgs) == 0 {
				index[""] = len(r.units)
				r.units = append(r.units, Unit{Level: AllReads})
			}
			r.noRG = []int{index[""]}
		}
	}
	return r, nil
}

// Units returns the units in output order.
func (r *Resolver) Units() []Unit {
	return r.units
}

// Route returns the indexes into Units of the units rec feeds.  The caller
// must not modify the returned slice.  A record naming a read group missing
// from the header is an error.
func (r *Resolver) Route(rec *sam.Record) ([]int, error) {
	aux := rec.AuxFields.Get(rgTag)
	if aux == nil {
		return r.noRG, nil
	}
	id, ok := aux.Value().(string)
	if !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("metrics: record %s has a non-string RG tag", rec.Name))
	}
	units, ok := r.byRG[id]
	if !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("metrics: record %s names read group %s, which is not in the header", rec.Name, id))
	}
	return units, nil
}
