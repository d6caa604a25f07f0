package dsk

import (
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"

	"github.com/GATB/gatb-core-sub000/bank"
)

// kmerRecordSize is the in-memory footprint of one stored KmerCode (code +
// abundance), used to estimate V in bytes, spec.md §4.1.
const kmerRecordSize = 16

// Plan is the Configurator's output: the chosen (P, Q) and, when
// frequency-order minimizers are requested, the sampled frequency
// table.
type Plan struct {
	Passes     int
	Partitions int
	FreqTable  minimizer.FrequencyTable
}

// Configurator computes P and Q from an estimated input volume and the
// configured memory/disk budgets, spec.md §4.1.
type Configurator struct {
	Config Config
	Log    func(format string, args ...interface{})
}

// Configure estimates V from the bank's size hint and derives (P, Q).
func (c *Configurator) Configure(b bank.Bank) (Plan, error) {
	if err := c.Config.Validate(); err != nil {
		return Plan{}, err
	}

	nReads, totalBases := b.EstimateNbItemsAndTotalLength()
	if totalBases <= 0 {
		return Plan{}, &engine.ConfigurationError{Reason: "empty bank"}
	}

	// V = N * sizeof(KMer): one k-mer record per base is the DSK
	// estimate's standard over-approximation (every position starts a
	// k-mer).
	v := totalBases * kmerRecordSize

	maxDisk := c.Config.MaxDisk
	if maxDisk <= 0 {
		maxDisk = v * 4 // generous default when unset
	}
	if maxDisk < v/int64(c.Config.maxOpenFiles()) {
		return Plan{}, &engine.ResourceError{Budget: maxDisk, Needed: v / int64(c.Config.maxOpenFiles()), Context: "disk"}
	}

	availableForPasses := maxDisk / 2
	if availableForPasses > v {
		availableForPasses = v
	}
	passes := 1
	if availableForPasses > 0 {
		passes = int(ceilDiv(v, availableForPasses))
	}
	if passes < 1 {
		passes = 1
	}

	maxMem := c.Config.MaxMemory
	if maxMem <= 0 {
		maxMem = 256 << 20 // 256MB default budget, matching a modest dev machine
	}

	perPass := v / int64(passes)
	partitions := int(ceilDiv(perPass, maxMem))
	if partitions < 1 {
		partitions = 1
	}
	for passes*partitions >= c.Config.maxOpenFiles()/2 {
		partitions = (partitions + 1) / 2
		if partitions < 1 {
			partitions = 1
			break
		}
	}

	plan := Plan{Passes: passes, Partitions: partitions}

	if c.Config.MinimizerType == MinimizerFrequency {
		freq, err := c.sampleFrequencies(b)
		if err != nil {
			return Plan{}, err
		}
		plan.FreqTable = freq
	}

	if c.Log != nil {
		c.Log("configurator: %d reads, %s bases, V=%s, P=%d, Q=%d",
			nReads, humanize.Comma(totalBases), humanize.Bytes(uint64(v)), passes, partitions)
	}

	return plan, nil
}

// sampleFrequencies does the first-pass sample spec.md §4.1 describes
// for frequency-order minimizers: count how often each (k-1)-mer
// m-mer-sized minimizer is seen across the bank, then rank rarest
// first. Resets the bank afterward if it supports it, mirroring the
// Configurator's own sample pass followed by the Partitioner's real
// pass over the same source.
func (c *Configurator) sampleFrequencies(b bank.Bank) (minimizer.FrequencyTable, error) {
	counts := make(map[uint64]uint64)
	k, m := c.Config.KmerSize, c.Config.MinimizerSize

	for {
		seq, err := b.Next()
		if err != nil {
			break
		}
		if len(seq.Bases) < k {
			continue
		}
		sk, err := minimizer.NewSketch(seq.Bases, k, m, minimizer.LexOrder, nil)
		if err != nil {
			continue
		}
		for {
			mz, ok := sk.Next()
			if !ok {
				break
			}
			counts[mz]++
		}
	}

	if r, ok := b.(interface{ Reset() }); ok {
		r.Reset()
	}

	ranked := rankByFrequency(counts)
	return ranked, nil
}

// rankByFrequency turns raw occurrence counts into a rank table: rank
// 0 is rarest, matching spec.md §3's "low-frequency m-mers win".
func rankByFrequency(counts map[uint64]uint64) minimizer.FrequencyTable {
	type kv struct {
		code  uint64
		count uint64
	}
	entries := make([]kv, 0, len(counts))
	for code, cnt := range counts {
		entries = append(entries, kv{code, cnt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count < entries[j].count })

	table := make(minimizer.FrequencyTable, len(entries))
	for i, e := range entries {
		table[e.code] = uint64(i)
	}
	return table
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
