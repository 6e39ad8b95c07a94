package collision

import (
	"strings"

	"github.com/arloliu/sas7bdat/errs"
	"github.com/arloliu/sas7bdat/internal/hash"
)

// Index resolves column names to ordinals through their hashed keys.
// Keys are verified against the stored names, so a hash collision never resolves to the
// wrong column; it only costs an extra comparison.
type Index struct {
	byKey        map[uint64][]int // Hash → ordinals sharing the key
	names        []string         // Ordinal → name
	hasCollision bool             // Whether two distinct names share a key
}

// NewIndex builds an index over the column names in ordinal order.
func NewIndex(names []string) *Index {
	ix := &Index{
		byKey: make(map[uint64][]int, len(names)),
		names: names,
	}

	for i, name := range names {
		key := hash.ColumnKey(name)
		if existing, ok := ix.byKey[key]; ok {
			for _, j := range existing {
				if !strings.EqualFold(names[j], name) {
					ix.hasCollision = true
				}
			}
		}
		ix.byKey[key] = append(ix.byKey[key], i)
	}

	return ix
}

// Lookup returns the ordinal of name. An exact-case match wins over a case-insensitive
// one.
func (ix *Index) Lookup(name string) (int, bool) {
	candidates := ix.byKey[hash.ColumnKey(name)]

	for _, i := range candidates {
		if ix.names[i] == name {
			return i, true
		}
	}
	for _, i := range candidates {
		if strings.EqualFold(ix.names[i], name) {
			return i, true
		}
	}

	return -1, false
}

// Resolve maps a projection to ordinals, preserving the requested order.
//
// Returns:
//   - []int: ordinals in request order
//   - error: ErrUnknownColumn for a name that does not exist, ErrDuplicateColumn for a
//     column requested twice
func (ix *Index) Resolve(names []string) ([]int, error) {
	ordinals := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))

	for _, name := range names {
		i, ok := ix.Lookup(name)
		if !ok {
			return nil, errs.ForColumn("resolve projection", name, errs.ErrUnknownColumn)
		}
		if _, dup := seen[i]; dup {
			return nil, errs.ForColumn("resolve projection", name, errs.ErrDuplicateColumn)
		}
		seen[i] = struct{}{}
		ordinals = append(ordinals, i)
	}

	return ordinals, nil
}

// HasCollision returns true if two distinct names share a hashed key.
func (ix *Index) HasCollision() bool {
	return ix.hasCollision
}

// Names returns the indexed names in ordinal order.
func (ix *Index) Names() []string {
	return ix.names
}

// Count returns the number of indexed columns.
func (ix *Index) Count() int {
	return len(ix.names)
}
