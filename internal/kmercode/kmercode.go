// Package kmercode encodes DNA k-mers (k <= 32) into 2-bit-packed
// 64-bit integers and provides the canonicalization, reverse-complement
// and encode/decode primitives the rest of the engine builds on.
package kmercode

import (
	"bytes"
	"errors"
)

// ErrIllegalBase means that a byte outside the IUPAC alphabet was seen.
var ErrIllegalBase = errors.New("kmercode: illegal base")

// ErrKOverflow means K is outside (0, 32].
var ErrKOverflow = errors.New("kmercode: K (1-32) overflow")

// ErrKMismatch means two KmerCode values have different K.
var ErrKMismatch = errors.New("kmercode: K mismatch")

// ErrNotConsecutiveKmers means the two k-mers passed to an incremental
// encode helper do not overlap by k-1 bases.
var ErrNotConsecutiveKmers = errors.New("kmercode: not consecutive kmers")

// Encode converts a byte slice to its 2-bit packed representation.
//
// Codes:
//
//	A    00
//	C    01
//	G    10
//	T    11
//
// Degenerate IUPAC bases are folded to their first represented base,
// matching the teacher's encoding table.
func Encode(kmer []byte) (code uint64, err error) {
	k := len(kmer)
	if k == 0 || k > 32 {
		return 0, ErrKOverflow
	}

	for i := range kmer {
		switch kmer[k-1-i] {
		case 'G', 'g', 'K', 'k':
			code |= 2 << uint64(i*2)
		case 'T', 't', 'U', 'u':
			code |= 3 << uint64(i*2)
		case 'C', 'c', 'S', 's', 'B', 'b', 'Y', 'y':
			code |= 1 << uint64(i*2)
		case 'A', 'a', 'N', 'n', 'M', 'm', 'V', 'v', 'H', 'h', 'R', 'r', 'D', 'd', 'W', 'w':
			// code |= 0
		default:
			return code, ErrIllegalBase
		}
	}
	return code, nil
}

// MustEncodeFromFormerKmer derives the code of kmer from the code of a
// k-mer that starts one base earlier and overlaps it by k-1 bases,
// without re-validating that overlap.
func MustEncodeFromFormerKmer(kmer []byte, leftKmer []byte, leftCode uint64) (uint64, error) {
	leftCode = leftCode & ((1 << (uint(len(kmer)-1) << 1)) - 1) << 2
	switch kmer[len(kmer)-1] {
	case 'G', 'g', 'K', 'k':
		leftCode |= 2
	case 'T', 't', 'U', 'u':
		leftCode |= 3
	case 'C', 'c', 'S', 's', 'B', 'b', 'Y', 'y':
		leftCode |= 1
	case 'A', 'a', 'N', 'n', 'M', 'm', 'V', 'v', 'H', 'h', 'R', 'r', 'D', 'd', 'W', 'w':
		// leftCode |= 0
	default:
		return leftCode, ErrIllegalBase
	}
	return leftCode, nil
}

// EncodeFromFormerKmer validates the overlap and then defers to
// MustEncodeFromFormerKmer. Inspired by the incremental update used by
// rolling hashes such as ntHash.
func EncodeFromFormerKmer(kmer []byte, leftKmer []byte, leftCode uint64) (uint64, error) {
	if len(kmer) == 0 {
		return 0, ErrKOverflow
	}
	if len(kmer) != len(leftKmer) {
		return 0, ErrKMismatch
	}
	if !bytes.Equal(kmer[0:len(kmer)-1], leftKmer[1:len(leftKmer)]) {
		return 0, ErrNotConsecutiveKmers
	}
	return MustEncodeFromFormerKmer(kmer, leftKmer, leftCode)
}

// Reverse returns the code of the reversed (not complemented) sequence.
func Reverse(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code & 3
		code >>= 2
	}
	return
}

// Complement returns the code of the complement sequence (not reversed).
func Complement(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c |= (code&3 ^ 3) << uint(i<<1)
		code >>= 2
	}
	return
}

// RevComp returns the code of the reverse complement sequence.
func RevComp(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code&3 ^ 3
		code >>= 2
	}
	return
}

var bit2base = [4]byte{'A', 'C', 'G', 'T'}

// Decode converts a packed code back to its ACGT byte sequence.
func Decode(code uint64, k int) []byte {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	kmer := make([]byte, k)
	for i := 0; i < k; i++ {
		kmer[k-1-i] = bit2base[code&3]
		code >>= 2
	}
	return kmer
}

// KmerCode represents a k-mer of span <= 32 packed into a uint64.
// Spans above 32 are handled by the Kmer2W/Kmer4W variants in span.go;
// the engine picks one concrete representation at Configurator startup
// and never mixes them within a run.
type KmerCode struct {
	Code uint64
	K    int
}

// NewKmerCode builds a KmerCode from raw bases.
func NewKmerCode(kmer []byte) (KmerCode, error) {
	code, err := Encode(kmer)
	if err != nil {
		return KmerCode{}, err
	}
	return KmerCode{code, len(kmer)}, err
}

// NewKmerCodeFromFormerOne computes a KmerCode from the preceding
// consecutive k-mer's code, validating the overlap.
func NewKmerCodeFromFormerOne(kmer []byte, leftKmer []byte, preKcode KmerCode) (KmerCode, error) {
	code, err := EncodeFromFormerKmer(kmer, leftKmer, preKcode.Code)
	if err != nil {
		return KmerCode{}, err
	}
	return KmerCode{code, len(kmer)}, err
}

// Equal reports whether two KmerCodes represent the same k-mer.
func (kcode KmerCode) Equal(kcode2 KmerCode) bool {
	return kcode.K == kcode2.K && kcode.Code == kcode2.Code
}

// Rev returns the KmerCode of the reversed sequence.
func (kcode KmerCode) Rev() KmerCode {
	return KmerCode{Reverse(kcode.Code, kcode.K), kcode.K}
}

// Comp returns the KmerCode of the complement sequence.
func (kcode KmerCode) Comp() KmerCode {
	return KmerCode{Complement(kcode.Code, kcode.K), kcode.K}
}

// RevComp returns the KmerCode of the reverse complement sequence.
func (kcode KmerCode) RevComp() KmerCode {
	return KmerCode{RevComp(kcode.Code, kcode.K), kcode.K}
}

// Canonical returns the lexicographically smaller of kcode and its
// reverse complement -- the canonical form every stage of the engine
// stores and compares on.
func (kcode KmerCode) Canonical() KmerCode {
	rcKcode := kcode.RevComp()
	if rcKcode.Code < kcode.Code {
		return rcKcode
	}
	return kcode
}

// Bytes returns the k-mer as an ACGT byte slice.
func (kcode KmerCode) Bytes() []byte {
	return Decode(kcode.Code, kcode.K)
}

// String returns the k-mer as an ACGT string.
func (kcode KmerCode) String() string {
	return string(Decode(kcode.Code, kcode.K))
}

// LeftKMinus1Mer returns the KmerCode of the k-mer's leftmost k-1 bases.
func (kcode KmerCode) LeftKMinus1Mer() KmerCode {
	return KmerCode{Code: kcode.Code >> 2, K: kcode.K - 1}
}

// RightKMinus1Mer returns the KmerCode of the k-mer's rightmost k-1 bases.
func (kcode KmerCode) RightKMinus1Mer() KmerCode {
	mask := uint64(1)<<(uint(kcode.K-1)<<1) - 1
	return KmerCode{Code: kcode.Code & mask, K: kcode.K - 1}
}
