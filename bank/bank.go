// Package bank defines the engine's only contract with sequence input
// (spec.md §6): "an iterable of byte sequences with comments... the
// engine only requires first/next/item semantics and length
// estimation." FASTA/FASTQ parsing itself is out of scope (spec.md
// §1), so this package never reads a file -- it only declares the
// interface the Partitioner and Configurator pull from, shaped after
// the teacher's use of `github.com/shenwei356/bio/seqio/fastx.Reader`/
// `fastx.Record` in unikmer/cmd/count.go, reduced to what the engine
// actually calls.
package bank

import "io"

// Sequence is one record pulled from a Bank: raw bases plus an
// optional comment/identifier, mirroring the fields count.go reads off
// `fastx.Record` (`record.Seq.Seq`) without requiring the rest of a
// full FASTA/FASTQ record.
type Sequence struct {
	Comment string
	Bases   []byte
}

// Bank is the engine's external collaborator contract: an iterable
// source of Sequences with a cheap up-front size estimate the
// Configurator uses to compute V (spec.md §4.1).
type Bank interface {
	// Next returns the next Sequence, or io.EOF once exhausted.
	Next() (*Sequence, error)
	// EstimateNbItemsAndTotalLength returns a (possibly approximate)
	// read count and total base count, used by the Configurator to
	// size P and Q without a full pre-scan.
	EstimateNbItemsAndTotalLength() (n int64, total int64)
}

// MemBank is an in-memory Bank test double -- the engine has no
// built-in FASTA/FASTQ reader (spec.md §1's out-of-scope list), so
// tests construct a MemBank directly instead of parsing a file.
type MemBank struct {
	seqs []Sequence
	pos  int
}

// NewMemBank wraps a fixed slice of sequences as a Bank.
func NewMemBank(seqs []Sequence) *MemBank {
	return &MemBank{seqs: seqs}
}

// NewMemBankFromStrings is a convenience constructor for tests and the
// concrete scenarios in spec.md §8, which are given as bare strings.
func NewMemBankFromStrings(reads ...string) *MemBank {
	seqs := make([]Sequence, len(reads))
	for i, r := range reads {
		seqs[i] = Sequence{Bases: []byte(r)}
	}
	return &MemBank{seqs: seqs}
}

func (b *MemBank) Next() (*Sequence, error) {
	if b.pos >= len(b.seqs) {
		return nil, io.EOF
	}
	s := b.seqs[b.pos]
	b.pos++
	return &s, nil
}

func (b *MemBank) EstimateNbItemsAndTotalLength() (n int64, total int64) {
	n = int64(len(b.seqs))
	for _, s := range b.seqs {
		total += int64(len(s.Bases))
	}
	return n, total
}

// Reset rewinds the bank so it can be iterated again, e.g. for the
// Configurator's frequency-sampling pass followed by the Partitioner's
// real pass.
func (b *MemBank) Reset() { b.pos = 0 }
