package bamprovider

import (
	"github.com/grailbio/hts/sam"
)

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// ForEach runs fn on every record yielded by a new iterator over p, stopping
// at the first error.  It returns fn's error or the iterator's.
func ForEach(p Provider, fn func(*sam.Record) error) (err error) {
	iter := p.NewIterator()
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = e
		}
	}()
	for iter.Scan() {
		if err = fn(iter.Record()); err != nil {
			return err
		}
	}
	return iter.Err()
}
