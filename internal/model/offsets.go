package model

import (
	"slices"
	"sort"
)

// Offsets is a set of reminder lead times in minutes.
type Offsets []int

// Contains reports whether m is in the set.
func (o Offsets) Contains(m int) bool {
	return slices.Contains(o, m)
}

// Normalize drops non-positive values and duplicates and sorts the rest descending.
func (o Offsets) Normalize() Offsets {
	seen := make(map[int]struct{}, len(o))
	out := make(Offsets, 0, len(o))
	for _, m := range o {
		if m <= 0 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// With returns a copy of o with m appended unless it is already present.
func (o Offsets) With(m int) Offsets {
	out := make(Offsets, len(o), len(o)+1)
	copy(out, o)
	if out.Contains(m) {
		return out
	}
	return append(out, m)
}
