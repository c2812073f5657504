package whisk

import (
	"cmp"
	"slices"
)

// SortByKey sorts items in place by the string key returns, keeping the
// relative order of items with equal keys.
func SortByKey[T any](items []T, key func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// SortKeyer is implemented by the listable entities.
type SortKeyer interface {
	SortKey() string
}

// Sorted returns a sorted copy of items using their SortKey.
func Sorted[T SortKeyer](items []T) []T {
	out := slices.Clone(items)
	SortByKey(out, T.SortKey)
	return out
}
