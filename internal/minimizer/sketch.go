// Package minimizer computes the (k-1)-mer minimizer of a k-mer window
// and the sliding-window minimizer stream over a whole read, the basis
// for the Partitioner's and Bucketizer's minimizer partitioning scheme
// (spec.md §3, §4.2, §4.4).
package minimizer

import (
	"sort"

	"github.com/will-rowe/nthash"
)

// Order selects how candidate m-mers are compared inside a window.
type Order int

const (
	// LexOrder picks the m-mer with the smallest canonical ntHash
	// value. It does not compare m-mers lexicographically or by their
	// packed codes.
	LexOrder Order = iota
	// FrequencyOrder picks the m-mer with the lowest rank in the
	// FrequencyTable, breaking ties by the low 16 bits of its canonical
	// ntHash value; m-mers absent from the table are compared by their
	// full canonical ntHash value.
	FrequencyOrder
)

// ErrInvalidM means m is outside (0, k].
var ErrInvalidM = errMinimizer("minimizer: invalid minimizer size")

// ErrShortSeq means the sequence is shorter than the window it is
// asked to sketch.
var ErrShortSeq = errMinimizer("minimizer: sequence shorter than window")

type errMinimizer string

func (e errMinimizer) Error() string { return string(e) }

// FrequencyTable maps an m-mer's canonical ntHash value to an observed
// frequency rank; lower is rarer. It backs Order==FrequencyOrder and
// is the in-memory form of the optional `minimizers/minimFrequency`
// container dataset (spec.md §6).
type FrequencyTable map[uint64]uint64

// Sketch is a pull-based sliding-window minimizer iterator over one
// read, grounded on the teacher's NewMinimizerSketch/NextMinimizer
// (sketch.go), generalized from a hash-minimizer to an m-mer minimizer
// that can run in either LexOrder or FrequencyOrder.
type Sketch struct {
	seq []byte
	k   int
	m   int
	w   int // number of m-mer windows per k-mer = k-m+1
	order Order
	freq  FrequencyTable

	hasher *nthash.NTHi

	idx int // 0-based index of the current k-mer's start
	end int

	buf []idxValue // m-mers currently in the window, sorted by val
}

type idxValue struct {
	idx int
	val uint64
}

type idxValues []idxValue

func (l idxValues) Len() int           { return len(l) }
func (l idxValues) Less(i, j int) bool { return l[i].val < l[j].val }
func (l idxValues) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// NewSketch returns a minimizer Sketch over seq for the given k and m.
func NewSketch(seq []byte, k, m int, order Order, freq FrequencyTable) (*Sketch, error) {
	if m < 1 || m > k {
		return nil, ErrInvalidM
	}
	if len(seq) < k {
		return nil, ErrShortSeq
	}

	s := &Sketch{
		seq: seq, k: k, m: m, w: k - m + 1,
		order: order, freq: freq,
	}
	s.end = len(seq) - k
	s.buf = make([]idxValue, 0, s.w)

	var err error
	s.hasher, err = nthash.NewHasher(&seq, uint(m))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// nextValue pulls the next m-mer's comparison key from the rolling
// ntHash, grounded on the teacher's sketch.go which drives the same
// nthash.NTHi sequentially across the whole read. Under LexOrder (or
// with no table) the canonical ntHash value itself is the key, not the
// m-mer's packed code; under FrequencyOrder the table rank dominates,
// with the hash's low 16 bits folded in as a tiebreaker.
func (s *Sketch) nextValue() uint64 {
	canon, _ := s.hasher.Next(true)
	if s.order == LexOrder || s.freq == nil {
		return canon
	}
	if rank, ok := s.freq[canon]; ok {
		return rank<<16 ^ (canon & 0xffff)
	}
	return canon
}

// Next returns the minimizer's comparison key (see nextValue) for the
// current k-mer window and advances to the next one.
func (s *Sketch) Next() (code uint64, ok bool) {
	if s.idx > s.end {
		return 0, false
	}

	if s.idx == 0 {
		for i := 0; i < s.w; i++ {
			s.buf = append(s.buf, idxValue{idx: i, val: s.nextValue()})
		}
		sort.Sort(idxValues(s.buf))
	} else {
		// drop the m-mer that fell out of the window
		drop := s.idx - 1
		for i, iv := range s.buf {
			if iv.idx == drop {
				s.buf = append(s.buf[:i], s.buf[i+1:]...)
				break
			}
		}
		// pull the new trailing m-mer (hasher advances exactly one
		// position per Next() call, left to right) and insert it,
		// keeping buf sorted by val
		newIdx := s.idx + s.w - 1
		v := s.nextValue()
		pos := sort.Search(len(s.buf), func(i int) bool { return s.buf[i].val >= v })
		s.buf = append(s.buf, idxValue{})
		copy(s.buf[pos+1:], s.buf[pos:len(s.buf)-1])
		s.buf[pos] = idxValue{idx: newIdx, val: v}
	}

	min := s.buf[0]
	s.idx++
	return min.val, true
}

// CurrentIndex returns the 0-based start offset of the k-mer window
// Next() last computed a minimizer for.
func (s *Sketch) CurrentIndex() int { return s.idx - 1 }
