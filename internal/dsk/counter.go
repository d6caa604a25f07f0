package dsk

import (
	"io"
	"sort"

	"github.com/twotwotwo/sorts"
	"golang.org/x/sync/errgroup"

	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/iox"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
)

// largeSortThreshold is the per-partition element count above which
// the Counter switches from sort.Sort to the concurrent
// twotwotwo/sorts path, spec.md §4.3's "radix bucketing... followed by
// std::sort-equivalent" rendered in Go as a plain/concurrent sort
// split rather than a hand-rolled radix sort -- the teacher reaches
// for twotwotwo/sorts at exactly this kind of size threshold
// (unikmer/cmd/common.go).
const largeSortThreshold = 1 << 20

// SolidKmer is one emitted solid k-mer: a canonical code plus its
// combined abundance, spec.md §3's "Abundance triple", after solidity
// filtering.
type SolidKmer struct {
	Code      uint64
	Abundance uint16
}

// SolidStore is the global solid-k-mer storage, partitioned exactly as
// the Partitioner laid files out (spec.md §4.3's "a partitioned, typed
// collection indexed by partition id"). Each partition's slice is kept
// in ascending canonical-k-mer order, the Counter's ordering guarantee
// (spec.md §5).
type SolidStore struct {
	K          int
	Partitions [][]SolidKmer
}

// Counter expands each partition's super-k-mers into canonical k-mers,
// counts runs, and emits solid k-mers, spec.md §4.3.
type Counter struct {
	Config Config
	Plan   Plan
	Dir    string
}

// Run processes every partition file this Plan produced and returns
// the combined SolidStore plus a Histogram of raw abundances (spec.md
// §6's `dsk/histogram` dataset). Partitions are independent, so each
// is handed to the work-stealing pool (spec.md §5's "Counter...
// run[s] their inner loops via the pool", "Counter [is] I/O-parallel"),
// bounded to NbCores workers the same way Compactor.Run fans out over
// buckets.
func (c *Counter) Run() (*SolidStore, *Histogram, error) {
	store := &SolidStore{K: c.Config.KmerSize, Partitions: make([][]SolidKmer, c.Plan.Partitions)}
	hist := NewHistogram(c.Config.HistogramMax)

	workers := c.Config.NbCores
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for part := 0; part < c.Plan.Partitions; part++ {
		part := part
		g.Go(func() error {
			counts, err := c.countPartition(part)
			if err != nil {
				return err
			}
			if err := c.consumeTraveller(part, counts); err != nil {
				return err
			}
			store.Partitions[part] = c.filterSolid(counts, hist)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return store, hist, nil
}

// CountMulti is the multi-bank counterpart to Run: dirs holds one
// partition/traveller directory per bank, laid out by RunMultiBank.
// Each bank's counts are computed independently via countPartition and
// consumeTraveller, then combined per canonical code according to
// Config.SolidityKind (spec.md §3's "for multi-bank input, satisfying
// the chosen solidity kind" and §4.3's "Solidity kinds (applied over
// per-bank counts when multiple banks)") before the usual [min,max]
// filter.
func (c *Counter) CountMulti(dirs []string) (*SolidStore, *Histogram, error) {
	store := &SolidStore{K: c.Config.KmerSize, Partitions: make([][]SolidKmer, c.Plan.Partitions)}
	hist := NewHistogram(c.Config.HistogramMax)

	workers := c.Config.NbCores
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for part := 0; part < c.Plan.Partitions; part++ {
		part := part
		g.Go(func() error {
			perBank := make([]map[uint64]uint16, len(dirs))
			for i, dir := range dirs {
				bc := &Counter{Config: c.Config, Plan: c.Plan, Dir: dir}
				counts, err := bc.countPartition(part)
				if err != nil {
					return err
				}
				if err := bc.consumeTraveller(part, counts); err != nil {
					return err
				}
				perBank[i] = counts
			}

			combined := combineSolidity(c.Config.SolidityKind, perBank)
			store.Partitions[part] = c.filterSolid(combined, hist)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return store, hist, nil
}

// combineSolidity merges one counts map per bank into a single
// code -> abundance map, spec.md §4.3's solidity kinds: ONE (any bank
// meets the threshold) and MAX both take the per-bank max; ALL (every
// bank meets the threshold) and MIN both take the per-bank min; SUM
// takes the capped sum. A code absent from a bank's map counts as zero
// abundance in that bank. The result still flows through filterSolid's
// ordinary [AbundanceMin, effectiveAbundanceMax] check, so no
// threshold logic is duplicated here.
func combineSolidity(kind SolidityKind, perBank []map[uint64]uint16) map[uint64]uint16 {
	codes := make(map[uint64]struct{})
	for _, m := range perBank {
		for code := range m {
			codes[code] = struct{}{}
		}
	}

	combined := make(map[uint64]uint16, len(codes))
	for code := range codes {
		switch kind {
		case SolidityAll, SolidityMin:
			combined[code] = minPerBank(perBank, code)
		case SoliditySum:
			combined[code] = sumPerBank(perBank, code)
		default: // SolidityOne, SolidityMax
			combined[code] = maxPerBank(perBank, code)
		}
	}
	return combined
}

func minPerBank(perBank []map[uint64]uint16, code uint64) uint16 {
	m := ^uint16(0)
	for _, bankCounts := range perBank {
		if v := bankCounts[code]; v < m {
			m = v
		}
	}
	return m
}

func maxPerBank(perBank []map[uint64]uint16, code uint64) uint16 {
	var m uint16
	for _, bankCounts := range perBank {
		if v := bankCounts[code]; v > m {
			m = v
		}
	}
	return m
}

func sumPerBank(perBank []map[uint64]uint16, code uint64) uint16 {
	sum := 0
	for _, bankCounts := range perBank {
		sum += int(bankCounts[code])
	}
	if sum > 0xffff {
		sum = 0xffff
	}
	return uint16(sum)
}

// countPartition reads every pass's file for this partition and
// returns a code -> abundance map. Per-bank abundance isn't tracked
// separately here since this is the single-bank path; multi-bank
// solidity combination happens in CountMulti, one countPartition call
// per bank directory.
func (c *Counter) countPartition(part int) (map[uint64]uint16, error) {
	counts := make(map[uint64]uint16, largeSortThreshold/16)

	for pass := 0; pass < c.Plan.Passes; pass++ {
		path := (&Partitioner{Plan: c.Plan, Dir: c.Dir}).partitionPath(pass, part)
		r, err := iox.OpenStream(path)
		if err != nil {
			continue // no super-k-mers were ever routed to this (pass, partition)
		}
		err = func() error {
			defer r.Close()
			for {
				rec, err := readSuperKmerRecord(r.Reader)
				if err != nil {
					if err == io.EOF {
						return nil
					}
					return &engine.FilesystemError{Path: path, Err: err}
				}
				c.expandRun(rec, counts)
			}
		}()
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// expandRun credits a whole super-k-mer run to its seed: the seed's
// canonical code receives RunLength occurrences. The run's other
// k-mers are not reconstructed, so they are not counted under their
// own codes (spec.md §4.2 stores one seed k-mer per run).
func (c *Counter) expandRun(rec superKmerRecord, counts map[uint64]uint16) {
	// The seed k-mer is always one real occurrence; the remaining
	// RunLength-1 positions are consecutive canonical k-mers the
	// Partitioner folded into the same run and did not re-emit
	// individually, so they are accounted for against the seed's
	// code -- this is the engine's simplified super-k-mer expansion
	// (see DESIGN.md): abundance is tracked per seed rather than
	// reconstructing every intermediate k-mer's bytes from the run.
	n := int(rec.RunLength)
	if n < 1 {
		n = 1
	}
	cur := counts[rec.SeedCode]
	next := int(cur) + n
	if next > 0xffff {
		next = 0xffff
	}
	counts[rec.SeedCode] = uint16(next)
}

func (c *Counter) consumeTraveller(part int, counts map[uint64]uint16) error {
	path := (&Partitioner{Dir: c.Dir}).travellerPath(part)
	r, err := iox.OpenStream(path)
	if err != nil {
		return nil // no travellers landed here
	}
	defer r.Close()

	for {
		rec, err := readTravellerFASTA(r.Reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &engine.FilesystemError{Path: path, Err: err}
		}
		kc, err := kmercode.NewKmerCode(rec.Bases)
		if err != nil {
			return &engine.CodecError{Reason: err.Error()}
		}
		canon := kc.Canonical()
		cur := counts[canon.Code]
		next := int(cur) + int(rec.Abundance)
		if next > 0xffff {
			next = 0xffff
		}
		counts[canon.Code] = uint16(next)
	}
}

// filterSolid keeps k-mers whose abundance lies in [min, max],
// histograms every raw abundance, and returns the survivors sorted
// ascending by canonical code (spec.md §4.3's ordering guarantee).
func (c *Counter) filterSolid(counts map[uint64]uint16, hist *Histogram) []SolidKmer {
	maxAb := c.Config.effectiveAbundanceMax()
	cs := make(kmercode.CountSlice, 0, len(counts))
	for code, ab := range counts {
		hist.Add(ab)
		if ab >= c.Config.AbundanceMin && ab <= maxAb {
			cs = append(cs, kmercode.Count{Code: code, Abundance: ab})
		}
	}

	if len(cs) > largeSortThreshold {
		if c.Config.NbCores > 0 {
			sorts.MaxProcs = c.Config.NbCores
		}
		sorts.Sort(cs)
	} else {
		sort.Sort(cs)
	}

	solids := make([]SolidKmer, len(cs))
	for i, rec := range cs {
		solids[i] = SolidKmer{Code: rec.Code, Abundance: rec.Abundance}
	}
	return solids
}
