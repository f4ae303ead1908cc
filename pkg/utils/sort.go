package utils

import (
	"cmp"
	"slices"
)

// SortStableBy sorts items ascending by key, keeping the original order of equal keys
func SortStableBy[T any, K cmp.Ordered](items []T, key func(T) K) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
