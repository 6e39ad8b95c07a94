package hash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ColumnKey computes the xxHash64 of a column name folded to upper case. Column names
// compare case-insensitively, so "age" and "AGE" share a key.
func ColumnKey(name string) uint64 {
	return xxhash.Sum64String(strings.ToUpper(name))
}
