package model

import "github.com/bits-and-blooms/bitset"

// FileSet records which input files, by index, a node was observed in.
// The zero value is an empty set ready for use.
type FileSet struct {
	bits bitset.BitSet
}

// Add marks file index i as present. Adding the same index again is a no-op.
func (s *FileSet) Add(i int) {
	s.bits.Set(uint(i))
}

// Has reports whether file index i is in the set.
func (s *FileSet) Has(i int) bool {
	return s.bits.Test(uint(i))
}

// Len returns the number of file indices in the set.
func (s *FileSet) Len() int {
	return int(s.bits.Count())
}

// Empty reports whether no file index is in the set.
func (s *FileSet) Empty() bool {
	return s.bits.None()
}

// Full reports whether every index in [0, n) is in the set.
// An empty range is always full.
func (s *FileSet) Full(n int) bool {
	for i := 0; i < n; i++ {
		if !s.Has(i) {
			return false
		}
	}
	return true
}

// Missing returns the indices in [0, n) that are not in the set, ascending.
func (s *FileSet) Missing(n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if !s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Indices returns the indices in the set, ascending.
func (s *FileSet) Indices() []int {
	out := make([]int, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
