package bcalm2

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/iox"
	"github.com/GATB/gatb-core-sub000/internal/kmercode"
)

// Gluer stitches fragments whose marked extremities share a canonical
// k-mer into finished unitigs, spec.md §4.6.
type Gluer struct {
	K               int
	NbCores         int
	NGluePartitions int
	Log             func(format string, args ...interface{})
}

// FinishedUnitig is one complete compacted sequence ready for the final
// FASTA, spec.md §6's "id LN:i: KC:i: KM:f:" header.
type FinishedUnitig struct {
	ID    int64
	Bases []byte
	KC    int64
}

// LN is the unitig's length in bases.
func (u FinishedUnitig) LN() int { return len(u.Bases) }

// KM is the unitig's mean per-k-mer abundance.
func (u FinishedUnitig) KM(k int) float64 {
	n := len(u.Bases) - k + 1
	if n <= 0 {
		return 0
	}
	return float64(u.KC) / float64(n)
}

// extremityCode returns the canonical code of a k-length base slice.
func extremityCode(seq []byte) (uint64, error) {
	code, err := kmercode.Encode(seq)
	if err != nil {
		return 0, err
	}
	kc := kmercode.KmerCode{Code: code, K: len(seq)}
	return kc.Canonical().Code, nil
}

// Run reads every fragment out of the glue files the Compactor wrote,
// groups fragments that must be chained together via a sharded
// union-find over their marked extremities, stitches each group, and
// writes the finished unitig FASTA to outPath.
//
// Simplification: spec.md §4.6 routes fragments through NGluePartitions
// on-disk buffered FASTA files before the per-partition stitching pass.
// Nothing here needs literal memory-boundedness, so fragments are kept
// in memory and grouped directly by union-find root instead of taking
// a disk round-trip through partition files. NGluePartitions is not
// consulted: each union-find root's group is stitched by its own
// goroutine, with at most NbCores of them running at once.
func (g *Gluer) Run(gluePaths []string, outPath string, compressed bool, stats *engine.Stats) error {
	frags, err := loadFragments(gluePaths)
	if err != nil {
		return err
	}

	lefts := make([]uint64, len(frags))
	rights := make([]uint64, len(frags))
	for i, f := range frags {
		if len(f.Bases) < g.K {
			return &engine.CompactionInvariant{Reason: fmt.Sprintf("fragment %d shorter than k", i)}
		}
		lc, err := extremityCode(f.Bases[:g.K])
		if err != nil {
			return &engine.CodecError{Reason: err.Error()}
		}
		rc, err := extremityCode(f.Bases[len(f.Bases)-g.K:])
		if err != nil {
			return &engine.CodecError{Reason: err.Error()}
		}
		lefts[i], rights[i] = lc, rc
	}

	// Pass 1: collect the distinct marked extremities into a dense
	// index space, keyed by the mixer hash per the MPHF-substitute
	// resolution recorded in DESIGN.md.
	extIndex := make(map[uint64]uint32)
	indexOf := func(code uint64) uint32 {
		key := engine.MixHash64(code)
		if idx, ok := extIndex[key]; ok {
			return idx
		}
		idx := uint32(len(extIndex))
		extIndex[key] = idx
		return idx
	}
	for i, f := range frags {
		if f.LMark {
			indexOf(lefts[i])
		}
		if f.RMark {
			indexOf(rights[i])
		}
	}

	// Pass 2: union both extremities of any fragment marked on both
	// ends, so the whole eventual chain collapses to one root
	// regardless of which fragment in it is examined first.
	uf := NewUnionFind(len(extIndex))
	for i, f := range frags {
		if f.LMark && f.RMark {
			uf.Union(indexOf(lefts[i]), indexOf(rights[i]))
		}
	}

	// Pass 3: project roots into a compact table.
	roots := make([]uint32, len(extIndex))
	for i := range roots {
		roots[i] = uf.Find(uint32(i))
	}

	// Pass 4: assign each marked fragment to its root's group;
	// unmarked fragments are already-finished unitigs. NGluePartitions
	// itself isn't consulted here -- see the Run doc comment.
	groups := make(map[uint32][]int)
	var finished []FinishedUnitig
	var nextID int64

	for i, f := range frags {
		if !f.LMark && !f.RMark {
			finished = append(finished, FinishedUnitig{
				ID:    atomic.AddInt64(&nextID, 1) - 1,
				Bases: append([]byte(nil), f.Bases...),
				KC:    sumAbundance(f.Abundances),
			})
			continue
		}
		var idx uint32
		if f.LMark {
			idx = indexOf(lefts[i])
		} else {
			idx = indexOf(rights[i])
		}
		root := roots[idx]
		groups[root] = append(groups[root], i)
	}

	rootList := make([]uint32, 0, len(groups))
	for r := range groups {
		rootList = append(rootList, r)
	}

	workers := g.NbCores
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	results := make([][]FinishedUnitig, len(rootList))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs engine.MultiError
	var warnings int64

	for gi, root := range rootList {
		gi, root := gi, root
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			bucket := groups[root]
			glued, unchained, err := stitchBucket(bucket, frags, lefts, rights, g.K, &nextID)
			if err != nil {
				mu.Lock()
				errs.Add(err)
				mu.Unlock()
				return
			}
			if unchained > 0 {
				atomic.AddInt64(&warnings, int64(unchained))
			}
			results[gi] = glued
		}()
	}
	wg.Wait()
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	for _, r := range results {
		finished = append(finished, r...)
	}

	if n := atomic.LoadInt64(&warnings); n > 0 && g.Log != nil {
		g.Log("glue: %d fragments never chained (likely a small circular contig)", n)
	}

	w, err := iox.CreateStream(outPath, compressed)
	if err != nil {
		return &engine.FilesystemError{Path: outPath, Err: err}
	}
	defer w.Close()

	for _, u := range finished {
		if err := writeUnitigFASTA(w, u, g.K); err != nil {
			return &engine.FilesystemError{Path: outPath, Err: err}
		}
	}

	if stats != nil {
		stats.AddUnitigsEmitted(int64(len(finished)))
	}
	return nil
}

func loadFragments(paths []string) ([]Fragment, error) {
	var frags []Fragment
	for _, p := range paths {
		r, err := iox.OpenStream(p)
		if err != nil {
			return nil, &engine.FilesystemError{Path: p, Err: err}
		}
		for {
			f, err := readFragment(r.Reader)
			if err != nil {
				break
			}
			frags = append(frags, f)
		}
		r.Close()
	}
	return frags, nil
}

func sumAbundance(a []uint16) int64 {
	var s int64
	for _, v := range a {
		s += int64(v)
	}
	return s
}

// fragRef names one marked end of one fragment within a stitching
// bucket.
type fragRef struct {
	idx  int
	side byte // 'L' or 'R'
}

// orient returns a fragment's bases/abundances read forward, or
// reverse-complemented when forward is false.
func orient(f Fragment, forward bool) ([]byte, []uint16) {
	if forward {
		return f.Bases, f.Abundances
	}
	return revCompBytes(f.Bases), reverseAbundances(f.Abundances)
}

// stitchBucket walks every chain within one union-find root's
// fragments, starting from each endpoint (a fragment with an unmarked
// end), and reports fragments that never found a chain (the circular
// contig case spec.md §4.6 calls out as a warning, not a failure).
func stitchBucket(bucket []int, frags []Fragment, lefts, rights []uint64, k int, nextID *int64) ([]FinishedUnitig, int, error) {
	byCode := make(map[uint64][]fragRef, len(bucket)*2)
	for _, i := range bucket {
		if frags[i].LMark {
			byCode[lefts[i]] = append(byCode[lefts[i]], fragRef{i, 'L'})
		}
		if frags[i].RMark {
			byCode[rights[i]] = append(byCode[rights[i]], fragRef{i, 'R'})
		}
	}

	used := make(map[int]bool, len(bucket))
	var out []FinishedUnitig

	for _, i := range bucket {
		f := frags[i]
		if used[i] || (f.LMark && f.RMark) {
			continue
		}
		chain, err := walkFragmentChain(i, frags, lefts, rights, byCode, used)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, assembleUnitig(chain, frags, k, nextID))
	}

	var unchained int
	for _, i := range bucket {
		if !used[i] {
			unchained++
		}
	}
	return out, unchained, nil
}

type fragStep struct {
	idx     int
	forward bool
}

// walkFragmentChain extends rightward from endpoint fragment start,
// following the unique successor sharing a marked extremity, until no
// partner remains or the walk closes a cycle.
func walkFragmentChain(start int, frags []Fragment, lefts, rights []uint64, byCode map[uint64][]fragRef, used map[int]bool) ([]fragStep, error) {
	f := frags[start]
	var forward bool
	var curSide byte
	var curCode uint64
	switch {
	case f.RMark && !f.LMark:
		forward, curSide, curCode = true, 'R', rights[start]
	case f.LMark && !f.RMark:
		forward, curSide, curCode = false, 'L', lefts[start]
	default:
		// Neither end marked: a standalone single-fragment unitig
		// that happened to land in this bucket (can't actually
		// happen since unmarked fragments are filtered out before
		// bucket assignment, kept here defensively).
		used[start] = true
		return []fragStep{{start, true}}, nil
	}

	chain := []fragStep{{start, forward}}
	used[start] = true

	for {
		partner, ok, err := partnerOf(byCode, curCode, fragRef{idx: chain[len(chain)-1].idx, side: curSide})
		if err != nil {
			return nil, err
		}
		if !ok || used[partner.idx] {
			break
		}

		nextForward := partner.side == 'L'
		chain = append(chain, fragStep{partner.idx, nextForward})
		used[partner.idx] = true

		if nextForward {
			curSide, curCode = 'R', rights[partner.idx]
		} else {
			curSide, curCode = 'L', lefts[partner.idx]
		}
	}
	return chain, nil
}

func partnerOf(byCode map[uint64][]fragRef, code uint64, self fragRef) (fragRef, bool, error) {
	list := byCode[code]
	var others []fragRef
	for _, fr := range list {
		if fr != self {
			others = append(others, fr)
		}
	}
	if len(others) == 0 {
		return fragRef{}, false, nil
	}
	if len(others) > 1 {
		return fragRef{}, false, &engine.CompactionInvariant{
			Reason: fmt.Sprintf("extremity %x has %d candidate successors", code, len(others)),
		}
	}
	return others[0], true, nil
}

// assembleUnitig concatenates a fragment chain, dropping the k-prefix
// of every fragment after the first and the first abundance of every
// continuation, spec.md §4.6 step 6.
func assembleUnitig(chain []fragStep, frags []Fragment, k int, nextID *int64) FinishedUnitig {
	var seq []byte
	var abund []uint16

	for i, st := range chain {
		bases, ab := orient(frags[st.idx], st.forward)
		if i == 0 {
			seq = append(seq, bases...)
			abund = append(abund, ab...)
			continue
		}
		seq = append(seq, bases[k:]...)
		if len(ab) > 1 {
			abund = append(abund, ab[1:]...)
		}
	}

	return FinishedUnitig{
		ID:    atomic.AddInt64(nextID, 1) - 1,
		Bases: seq,
		KC:    sumAbundance(abund),
	}
}

func writeUnitigFASTA(w *iox.WriteCloser, u FinishedUnitig, k int) error {
	header := fmt.Sprintf(">%d LN:i:%d KC:i:%d KM:f:%.1f\n", u.ID, u.LN(), u.KC, u.KM(k))
	if _, err := w.WriteString(header); err != nil {
		return err
	}
	if _, err := w.Write(u.Bases); err != nil {
		return err
	}
	_, err := w.WriteString("\n")
	return err
}
