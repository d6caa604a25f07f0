// Package dsk implements the disk-streaming k-mer counter: the
// Configurator, Partitioner, and Counter of spec.md §4.1-4.3, grounded
// on the teacher's streaming k-mer production (unikmer/cmd/count.go),
// partitioned chunk-file model (unikmer/cmd/merge.go), and concurrent
// sort wiring (unikmer/cmd/common.go).
package dsk

import (
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
)

// SolidityKind selects how per-bank abundances combine for
// multi-bank input, spec.md §4.3.
type SolidityKind int

const (
	SolidityOne SolidityKind = iota
	SolidityAll
	SolidityMin
	SolidityMax
	SoliditySum
)

func ParseSolidityKind(s string) (SolidityKind, error) {
	switch s {
	case "one", "":
		return SolidityOne, nil
	case "all":
		return SolidityAll, nil
	case "min":
		return SolidityMin, nil
	case "max":
		return SolidityMax, nil
	case "sum":
		return SoliditySum, nil
	}
	return 0, &engine.ConfigurationError{Reason: "unknown solidity_kind: " + s}
}

func (k SolidityKind) String() string {
	switch k {
	case SolidityOne:
		return "one"
	case SolidityAll:
		return "all"
	case SolidityMin:
		return "min"
	case SolidityMax:
		return "max"
	case SoliditySum:
		return "sum"
	}
	return "unknown"
}

// MinimizerType mirrors spec.md §6's `minimizer_type` option.
type MinimizerType int

const (
	MinimizerLex MinimizerType = iota
	MinimizerFrequency
)

// Config is the engine-level configuration, spec.md §6's
// "Configuration options" list, field-for-field.
type Config struct {
	KmerSize      int
	MinimizerSize int
	AbundanceMin  uint16
	AbundanceMax  uint16
	SolidityKind  SolidityKind
	MaxMemory     int64 // bytes
	MaxDisk       int64 // bytes
	NbCores       int
	MinimizerType MinimizerType
	HistogramMax  int
	HistogramCutoff int

	// MaxOpenFiles bounds P*Q, spec.md §4.1; defaults to a
	// conservative value when zero (most OSes cap well above this).
	MaxOpenFiles int

	// Log, when set, receives progress messages from the Configurator
	// and downstream stages that accept it; cmd/gatbdbg wires this to
	// its logger.
	Log func(format string, args ...interface{})
}

// Validate enforces spec.md §7's ConfigurationError triggers: k >
// span_max, m > k, negative abundance.
func (c Config) Validate() error {
	if c.KmerSize <= 0 || c.KmerSize > 128 {
		return &engine.ConfigurationError{Reason: "kmer_size out of range (1-128)"}
	}
	if c.MinimizerSize <= 0 || c.MinimizerSize > c.KmerSize {
		return &engine.ConfigurationError{Reason: "minimizer_size must be in (0, kmer_size]"}
	}
	if c.AbundanceMax != 0 && c.AbundanceMax < c.AbundanceMin {
		return &engine.ConfigurationError{Reason: "abundance_max < abundance_min"}
	}
	return nil
}

func (c Config) effectiveAbundanceMax() uint16 {
	if c.AbundanceMax == 0 {
		return ^uint16(0)
	}
	return c.AbundanceMax
}

func (c Config) spanCodec() (kmercode.SpanCodec, error) {
	return kmercode.CodecForSpan(c.KmerSize)
}

func (c Config) maxOpenFiles() int {
	if c.MaxOpenFiles > 0 {
		return c.MaxOpenFiles
	}
	return 1024
}
