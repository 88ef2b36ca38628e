package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// CheckDictionaries returns an Invalid error unless a and b list the same
// references, by name and length, in the same order.  aName and bName label
// the two sides in the error message.
func CheckDictionaries(aName string, a *sam.Header, bName string, b *sam.Header) error {
	aRefs, bRefs := a.Refs(), b.Refs()
	if len(aRefs) != len(bRefs) {
		return errors.E(errors.Invalid, fmt.Sprintf("sequence dictionaries differ: %s has %d references, %s has %d",
			aName, len(aRefs), bName, len(bRefs)))
	}
	for i := range aRefs {
		if aRefs[i].Name() != bRefs[i].Name() || aRefs[i].Len() != bRefs[i].Len() {
			return errors.E(errors.Invalid, fmt.Sprintf("sequence dictionaries differ at index %d: %s has %s:%d, %s has %s:%d",
				i, aName, aRefs[i].Name(), aRefs[i].Len(), bName, bRefs[i].Name(), bRefs[i].Len()))
		}
	}
	return nil
}

// CheckContigLengths is the weaker check used against a reference, which
// may list extra sequences: every reference in dict must be present in ref
// with the same length.
func CheckContigLengths(dict *sam.Header, refName string, lengths map[string]uint64) error {
	for _, r := range dict.Refs() {
		n, ok := lengths[r.Name()]
		if !ok {
			return errors.E(errors.Invalid, fmt.Sprintf("sequence %s missing from %s", r.Name(), refName))
		}
		if n != uint64(r.Len()) {
			return errors.E(errors.Invalid, fmt.Sprintf("sequence %s has length %d in the dictionary but %d in %s",
				r.Name(), r.Len(), n, refName))
		}
	}
	return nil
}
