package kmercode

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidK means k < 1.
var ErrInvalidK = errors.New("kmercode: invalid k-mer size")

// ErrEmptySeq means the sequence is empty.
var ErrEmptySeq = errors.New("kmercode: empty sequence")

// ErrShortSeq means the sequence is shorter than k.
var ErrShortSeq = errors.New("kmercode: sequence shorter than k")

// Iterator pulls successive KmerCodes out of a read, encoding each one
// incrementally from its predecessor instead of re-scanning the whole
// k-mer every step. It is a plain pull-based iterator, per the
// "Coroutines / generators" design note, with no goroutines or
// channels involved.
type Iterator struct {
	seq       []byte
	k         int
	canonical bool

	idx           int
	end           int
	first         bool
	kmer, preKmer []byte
	preCode       uint64
	finished      bool
}

// NewKmerIterator returns a k-mer code iterator over seq.
func NewKmerIterator(seq []byte, k int, canonical bool) (*Iterator, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(seq) == 0 {
		return nil, ErrEmptySeq
	}
	if len(seq) < k {
		return nil, ErrShortSeq
	}

	iter := &Iterator{seq: seq, k: k, canonical: canonical, first: true}
	iter.end = len(seq) - k
	return iter, nil
}

// NextKmer returns the next KmerCode, or ok=false once the read is exhausted.
func (iter *Iterator) NextKmer() (kc KmerCode, ok bool, err error) {
	if iter.finished {
		return KmerCode{}, false, nil
	}
	if iter.idx > iter.end {
		iter.finished = true
		return KmerCode{}, false, nil
	}

	iter.kmer = iter.seq[iter.idx : iter.idx+iter.k]

	var code uint64
	if iter.first {
		code, err = Encode(iter.kmer)
		iter.first = false
	} else {
		code, err = MustEncodeFromFormerKmer(iter.kmer, iter.preKmer, iter.preCode)
	}
	if err != nil {
		return KmerCode{}, false, pkgerrors.Wrapf(err, "encode %s", iter.kmer)
	}

	iter.preKmer, iter.preCode = iter.kmer, code
	iter.idx++

	kc = KmerCode{Code: code, K: iter.k}
	if iter.canonical {
		kc = kc.Canonical()
	}
	return kc, true, nil
}

// CurrentIndex returns the 0-based start offset of the k-mer last
// returned by NextKmer.
func (iter *Iterator) CurrentIndex() int {
	return iter.idx - 1
}
