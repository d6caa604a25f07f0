package kmercode

// KmerCodeSlice sorts KmerCode values by their packed code.
type KmerCodeSlice []KmerCode

func (codes KmerCodeSlice) Len() int           { return len(codes) }
func (codes KmerCodeSlice) Swap(i, j int)      { codes[i], codes[j] = codes[j], codes[i] }
func (codes KmerCodeSlice) Less(i, j int) bool { return codes[i].Code < codes[j].Code }

// CodeSlice sorts raw packed k-mer codes (uint64), the representation
// the Counter's radix/sort path and the Gluer's external merge work on.
type CodeSlice []uint64

func (codes CodeSlice) Len() int           { return len(codes) }
func (codes CodeSlice) Swap(i, j int)      { codes[i], codes[j] = codes[j], codes[i] }
func (codes CodeSlice) Less(i, j int) bool { return codes[i] < codes[j] }

// Count pairs a canonical k-mer code with its observed multiplicity,
// the "Abundance triple" of spec.md §3 (K is carried alongside, not
// per-record, since every record in a run shares one k).
type Count struct {
	Code      uint64
	Abundance uint16
}

// CountSlice sorts Count values by code, ascending -- the ordering
// guarantee the Counter must hold within one partition (spec.md §4.3).
type CountSlice []Count

func (c CountSlice) Len() int           { return len(c) }
func (c CountSlice) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
func (c CountSlice) Less(i, j int) bool { return c[i].Code < c[j].Code }
