package indexer

import "fmt"

// VersionRange is an inclusive range of transaction versions. To == 0 means
// no upper bound.
type VersionRange struct {
	From uint64
	To   uint64
}

// Validate checks that the range is not inverted.
func (r VersionRange) Validate() error {
	if r.To != 0 && r.To < r.From {
		return fmt.Errorf("to version must be >= from version")
	}
	return nil
}

// Contains reports whether version falls inside the range.
func (r VersionRange) Contains(version uint64) bool {
	if version < r.From {
		return false
	}
	return r.To == 0 || version <= r.To
}
