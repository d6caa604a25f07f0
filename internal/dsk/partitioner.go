package dsk

import (
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GATB/gatb-core-sub000/bank"
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/iox"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

// Partitioner streams a bank.Bank once, sliding a k-mer window over
// each read and emitting super-k-mers into P*Q on-disk partition
// files keyed by minimizer repartition, spec.md §4.2.
type Partitioner struct {
	Config Config
	Plan   Plan
	Dir    string
	Table  *minimizer.RepartitionTable

	// Compressed selects pgzip compression for partition/traveller
	// files, matching the teacher's --no-compress flag semantics
	// (unikmer/cmd/root.go). The zero value (false) writes uncompressed
	// files; the CLI sets it from --no-compress.
	Compressed bool

	mu     []sync.Mutex // one per (pass, partition) write cache
	travMu []sync.Mutex // one per traveller-file partition, spec.md §5's "one mutex per partition" for traveller files
	mapMu  sync.Mutex   // guards files/trav map lookups across concurrent workers
	files  map[int]*iox.WriteCloser
	trav   map[int]*iox.WriteCloser
	once   sync.Once
}

func (p *Partitioner) partitionPath(pass, part int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("part_%03d_%03d.bin", pass, part))
}

func (p *Partitioner) travellerPath(part int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("traveller_%03d.fa", part))
}

func (p *Partitioner) init() {
	n := p.Plan.Passes * p.Plan.Partitions
	p.mu = make([]sync.Mutex, n)
	p.travMu = make([]sync.Mutex, p.Plan.Partitions)
	p.files = make(map[int]*iox.WriteCloser, n)
	p.trav = make(map[int]*iox.WriteCloser, p.Plan.Partitions)
}

func (p *Partitioner) slot(pass, part int) int { return pass*p.Plan.Partitions + part }

// Run streams the bank once and writes the on-disk partition and
// traveller files. A single dispatcher goroutine pulls reads off b
// sequentially (Bank.Next() has no concurrent-call contract) and hands
// each one to a pool of NbCores workers that run partitionRead in
// parallel, spec.md §4.2's "Runs on a parallel dispatcher" and §5's
// "Partitioner... [is] I/O-parallel". Each worker's writes land under
// the per-(pass,partition) and per-partition-traveller mutexes set up
// by init, so the dispatch itself needs no further locking. Returns
// the run-wide stats and any aggregate error from the run.
func (p *Partitioner) Run(b bank.Bank) (*engine.Stats, error) {
	p.once.Do(p.init)
	stats := &engine.Stats{}
	k, m := p.Config.KmerSize, p.Config.MinimizerSize
	defer p.closeAll()

	workers := p.Config.NbCores
	if workers <= 0 {
		workers = 1
	}

	reads := make(chan []byte, workers*4)
	var g errgroup.Group

	g.Go(func() error {
		defer close(reads)
		for {
			seq, err := b.Next()
			if err != nil {
				return nil
			}
			if len(seq.Bases) < k {
				continue
			}
			reads <- seq.Bases
		}
	})

	var errsMu sync.Mutex
	var errs engine.MultiError
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for bases := range reads {
				if err := p.partitionRead(bases, k, m, stats); err != nil {
					errsMu.Lock()
					errs.Add(err)
					errsMu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, errs.ErrOrNil()
}

// partitionRead walks seq's k-mers, groups consecutive ones sharing a
// minimizer into a super-k-mer run, and dispatches each run to its
// partition file (plus a traveller record when the run's two ends
// repartition differently).
func (p *Partitioner) partitionRead(seq []byte, k, m int, stats *engine.Stats) error {
	iter, err := kmercode.NewKmerIterator(seq, k, true)
	if err != nil {
		return &engine.CodecError{Reason: err.Error()}
	}

	var runStart kmercode.KmerCode
	var runLen int
	var runMin uint64
	var runLeftMin, runRightMin uint64
	haveRun := false

	flush := func() error {
		if !haveRun {
			return nil
		}
		return p.emitSuperKmer(runStart, runLen, runMin, runLeftMin, runRightMin, stats)
	}

	for {
		kc, ok, err := iter.NextKmer()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		leftMin, rightMin, err := p.kmerMinimizers(kc, m)
		if err != nil {
			return err
		}
		mz := leftMin
		if rightMin < mz {
			mz = rightMin
		}

		if haveRun && mz == runMin && runLen < 255 {
			runLen++
			runRightMin = rightMin
			continue
		}

		if err := flush(); err != nil {
			return err
		}
		runStart, runLen, runMin = kc, 1, mz
		runLeftMin, runRightMin = leftMin, rightMin
		haveRun = true
	}
	return flush()
}

// kmerMinimizers returns the minimizer of a k-mer's left and right
// (k-1)-mer, spec.md §4.2's per-super-k-mer-end minimizers.
func (p *Partitioner) kmerMinimizers(kc kmercode.KmerCode, m int) (left, right uint64, err error) {
	bases := kc.Bytes()
	var order minimizer.Order
	var freq minimizer.FrequencyTable
	if p.Config.MinimizerType == MinimizerFrequency {
		order = minimizer.FrequencyOrder
		freq = p.Plan.FreqTable
	}

	leftBases := bases[:len(bases)-1]
	rightBases := bases[1:]

	lsk, err := minimizer.NewSketch(leftBases, len(leftBases), m, order, freq)
	if err != nil {
		return 0, 0, &engine.CodecError{Reason: err.Error()}
	}
	left, _ = lsk.Next()

	rsk, err := minimizer.NewSketch(rightBases, len(rightBases), m, order, freq)
	if err != nil {
		return 0, 0, &engine.CodecError{Reason: err.Error()}
	}
	right, _ = rsk.Next()
	return left, right, nil
}

func (p *Partitioner) emitSuperKmer(seed kmercode.KmerCode, runLen int, mz, leftMin, rightMin uint64, stats *engine.Stats) error {
	part := p.Table.Partition(mz)
	pass := int(engine.MixHash64(seed.Code) % uint64(p.Plan.Passes))

	w, err := p.writerFor(pass, part)
	if err != nil {
		return err
	}

	slotIdx := p.slot(pass, part)
	p.mu[slotIdx].Lock()
	err = writeSuperKmerRecord(w, superKmerRecord{SeedCode: seed.Code, RunLength: uint8(runLen)})
	p.mu[slotIdx].Unlock()
	if err != nil {
		return &engine.FilesystemError{Path: p.partitionPath(pass, part), Err: err}
	}
	stats.AddSuperKmersEmitted(1)

	if leftMin != rightMin {
		lp := p.Table.Partition(leftMin)
		rp := p.Table.Partition(rightMin)
		if lp != rp {
			maxMin := leftMin
			if rightMin > leftMin {
				maxMin = rightMin
			}
			travPart := p.Table.Partition(maxMin)
			tw, err := p.travellerWriterFor(travPart)
			if err != nil {
				return err
			}
			rec := travellerRecord{Abundance: 1, Bases: seed.Bytes()}
			p.travMu[travPart].Lock()
			err = writeTravellerFASTA(tw, rec)
			p.travMu[travPart].Unlock()
			if err != nil {
				return &engine.FilesystemError{Path: p.travellerPath(travPart), Err: err}
			}
			stats.AddTravellersEmitted(1)
		}
	}
	return nil
}

// writerFor and travellerWriterFor lazily open partition/traveller
// files the first time a worker touches them; mapMu guards the
// files/trav maps themselves, distinct from mu/travMu which guard the
// actual record writes once a writer exists.
func (p *Partitioner) writerFor(pass, part int) (*iox.WriteCloser, error) {
	idx := p.slot(pass, part)

	p.mapMu.Lock()
	defer p.mapMu.Unlock()
	if w, ok := p.files[idx]; ok {
		return w, nil
	}
	w, err := iox.CreateStream(p.partitionPath(pass, part), p.Compressed)
	if err != nil {
		return nil, &engine.FilesystemError{Path: p.partitionPath(pass, part), Err: err}
	}
	p.files[idx] = w
	return w, nil
}

func (p *Partitioner) travellerWriterFor(part int) (*iox.WriteCloser, error) {
	p.mapMu.Lock()
	defer p.mapMu.Unlock()
	if w, ok := p.trav[part]; ok {
		return w, nil
	}
	w, err := iox.CreateStream(p.travellerPath(part), p.Compressed)
	if err != nil {
		return nil, &engine.FilesystemError{Path: p.travellerPath(part), Err: err}
	}
	p.trav[part] = w
	return w, nil
}

func (p *Partitioner) closeAll() {
	for _, w := range p.files {
		w.Close()
	}
	for _, w := range p.trav {
		w.Close()
	}
}
