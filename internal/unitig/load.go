package unitig

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GATB/gatb-core-sub000/bank"
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
)

// canonicalOf returns seq's canonical code and whether canonicalizing
// it required a reverse complement.
func canonicalOf(seq []byte) (code uint64, flipped bool, err error) {
	raw, err := kmercode.Encode(seq)
	if err != nil {
		return 0, false, err
	}
	canon := kmercode.KmerCode{Code: raw, K: len(seq)}.Canonical()
	return canon.Code, canon.Code != raw, nil
}

// Load streams the final unitig FASTA (spec.md §4.7's "stream the
// final unitig FASTA") through a bank.Bank and builds the extremity
// hash plus parallel per-unitig vectors.
func Load(b bank.Bank, k int) (*UnitigGraph, error) {
	g := &UnitigGraph{K: k, extremities: make(map[uint64][]ExtremityEntry)}

	for {
		seq, err := b.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(seq.Bases) < k {
			return nil, &engine.CompactionInvariant{
				Reason: fmt.Sprintf("unitig shorter than k: %d bases", len(seq.Bases)),
			}
		}

		id := uint32(len(g.Seqs))
		g.Seqs = append(g.Seqs, seq.Bases)
		g.MeanAbundance = append(g.MeanAbundance, parseKM(seq.Comment))
		g.Deleted = append(g.Deleted, false)
		g.Visited = append(g.Visited, false)

		beginCode, beginFlipped, err := canonicalOf(seq.Bases[:k])
		if err != nil {
			return nil, &engine.CodecError{Reason: err.Error()}
		}

		if len(seq.Bases) == k {
			g.insert(beginCode, ExtremityEntry{UnitigID: id, flags: packFlags(PosBoth, beginFlipped)})
			continue
		}

		g.insert(beginCode, ExtremityEntry{UnitigID: id, flags: packFlags(PosBegin, beginFlipped)})

		endCode, endFlipped, err := canonicalOf(seq.Bases[len(seq.Bases)-k:])
		if err != nil {
			return nil, &engine.CodecError{Reason: err.Error()}
		}
		g.insert(endCode, ExtremityEntry{UnitigID: id, flags: packFlags(PosEnd, endFlipped)})
	}

	return g, nil
}

func (g *UnitigGraph) insert(code uint64, e ExtremityEntry) {
	g.extremities[code] = append(g.extremities[code], e)
}

// parseKM extracts the KM:f:<mean> tag from a unitig FASTA header
// comment, spec.md §6. A missing or malformed tag yields 0 rather than
// failing the whole load -- mean abundance is metadata, not structural.
func parseKM(comment string) float64 {
	for _, field := range strings.Fields(comment) {
		if strings.HasPrefix(field, "KM:f:") {
			if v, err := strconv.ParseFloat(strings.TrimPrefix(field, "KM:f:"), 64); err == nil {
				return v
			}
		}
	}
	return 0
}
