package unitig

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// SimplificationReport tallies what Simplifier.Run removed, spec.md
// §4.8 and engine.Stats's TipsRemoved/BulgesRemoved/ECsRemoved fields.
type SimplificationReport struct {
	TipsRemoved   int64
	BulgesRemoved int64
	ECsRemoved    int64
}

// NodesDeleter batches deletions collected by concurrent workers
// during one pass and flushes them under a single lock, grounded on
// the teacher's per-partition-mutex-then-merge idiom
// (unikmer/cmd/merge.go).
type NodesDeleter struct {
	graph *UnitigGraph
	mu    sync.Mutex
}

// Flush marks every id in ids deleted and returns how many were newly
// deleted (idempotent against repeat calls for the same id).
func (d *NodesDeleter) Flush(ids []uint32) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, id := range ids {
		if !d.graph.Deleted[id] {
			d.graph.Deleted[id] = true
			n++
		}
	}
	return n
}

// Simplifier runs the tip/bulge/erroneous-connection cleanup passes of
// spec.md §4.8 against a loaded UnitigGraph.
type Simplifier struct {
	Graph   *UnitigGraph
	K       int
	NbCores int
}

// cutoffFor derives the per-pass stop threshold from the graph size,
// spec.md §4.8: max(1, N/100000).
func cutoffFor(n int) int {
	c := n / 100000
	if c < 1 {
		return 1
	}
	return c
}

const maxSimplifyRounds = 20

// workerCount normalizes NbCores to a usable pool size.
func (s *Simplifier) workerCount() int {
	if s.NbCores <= 0 {
		return 1
	}
	return s.NbCores
}

// idChunks splits [0, n) into up to workers contiguous, disjoint
// ranges so each removal pass's scan can run on the pool without two
// workers ever touching the same unitig id, spec.md §5's "Simplifier
// [is] CPU-parallel".
func idChunks(n, workers int) [][2]uint32 {
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	if size < 1 {
		size = 1
	}
	var chunks [][2]uint32
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]uint32{uint32(start), uint32(end)})
	}
	return chunks
}

// Run interleaves tip, bulge, and erroneous-connection removal for up
// to maxSimplifyRounds rounds, stopping early once a round removes
// fewer than cutoff of each kind.
func (s *Simplifier) Run() SimplificationReport {
	cutoff := cutoffFor(len(s.Graph.Seqs))
	var report SimplificationReport

	for round := 0; round < maxSimplifyRounds; round++ {
		tips := s.removeTips(cutoff)
		bulges := s.removeBulges(cutoff)
		ecs := s.removeECs(cutoff)

		report.TipsRemoved += int64(tips)
		report.BulgesRemoved += int64(bulges)
		report.ECsRemoved += int64(ecs)

		if tips < cutoff && bulges < cutoff && ecs < cutoff {
			break
		}
	}
	return report
}

const tipTopologicalFactor = 3.5
const tipRCTCMaxFactor = 10
const tipRCTCCutoff = 2.0

// removeTips deletes short dead-end unitigs, spec.md §4.8: a unitig is
// a tip if one end is open (degree 0) and either its length is within
// 3.5k topologically, or within 10k and the mean coverage at its
// attached end exceeds twice its own mean abundance (RCTC).
// removeTips scans disjoint id ranges on the worker pool and flushes
// each worker's batch under NodesDeleter's lock, spec.md §5's
// "Simplifier... run their inner loops via the pool". The scan itself
// needs no synchronization: every worker only reads g's fields, and
// the batches are flushed only after every worker's range is scanned.
func (s *Simplifier) removeTips(cutoff int) int {
	g := s.Graph
	deleter := &NodesDeleter{graph: g}

	var g2 errgroup.Group
	var batches [][]uint32
	var removedMu sync.Mutex

	for _, c := range idChunks(len(g.Seqs), s.workerCount()) {
		start, end := c[0], c[1]
		g2.Go(func() error {
			var toDelete []uint32
			for id := start; id < end; id++ {
				if g.Deleted[id] {
					continue
				}
				length := len(g.Seqs[id]) - s.K + 1

				begin, fin := g.BeginCode(id), g.EndCode(id)
				beginOpen := g.ExtremityOpen(id, begin)
				endOpen := g.ExtremityOpen(id, fin)
				if !beginOpen && !endOpen {
					continue
				}
				if beginOpen && endOpen {
					// isolated contig, not a tip
					continue
				}

				var attachedCode uint64
				if beginOpen {
					attachedCode = fin
				} else {
					attachedCode = begin
				}

				if float64(length) <= tipTopologicalFactor*float64(s.K) {
					toDelete = append(toDelete, id)
					continue
				}
				if length <= tipRCTCMaxFactor*s.K && s.passesTipRCTC(id, attachedCode) {
					toDelete = append(toDelete, id)
				}
			}
			removedMu.Lock()
			batches = append(batches, toDelete)
			removedMu.Unlock()
			return nil
		})
	}
	g2.Wait()
	removed := 0
	for _, ids := range batches {
		removed += deleter.Flush(ids)
	}
	return removed
}

// passesTipRCTC reports whether the mean neighbor coverage at a tip's
// attached end exceeds tipRCTCCutoff times the tip's own mean
// abundance.
func (s *Simplifier) passesTipRCTC(id uint32, attachedCode uint64) bool {
	g := s.Graph
	var sum float64
	var n int
	for _, dir := range [2]Dir{Left, Right} {
		for _, nb := range g.Neighbors(attachedCode, dir) {
			if nb.UnitigID == id || g.Deleted[nb.UnitigID] {
				continue
			}
			sum += g.MeanAbundance[nb.UnitigID]
			n++
		}
	}
	if n == 0 {
		return false
	}
	mean := sum / float64(n)
	return mean > tipRCTCCutoff*g.MeanAbundance[id]
}

const bulgeMaxLengthFactor = 1.1
const bulgeCoverageFactor = 1.1

// removeBulges deletes the weaker of two near-length, reconverging
// alternative paths between the same pair of branch points, spec.md
// §4.8. The literal spec text allows up to 10 backtracking search
// calls to enumerate alternative paths; since each unitig extremity
// branches into at most 4 nucleotide successors, this instead performs
// an exhaustive bounded search over the (at most 4) simple paths
// leaving each branching extremity and groups them by reconvergence
// point -- equivalent in effect to the 10-call backtracking search but
// expressed as a direct enumeration instead of a recursive budget.
// removeBulges scans disjoint id ranges on the pool and flushes the
// batches after every worker finishes, like removeTips; the one piece
// of state workers write during the scan, the seen-branch-point map
// deduplicating which extremity already drove a search, is guarded by
// its own mutex since two workers can reach the same branch point from
// different unitig ids.
func (s *Simplifier) removeBulges(cutoff int) int {
	g := s.Graph
	deleter := &NodesDeleter{graph: g}
	maxLen := maxInt(3*s.K, s.K+100)

	seen := make(map[uint64]bool)
	var seenMu sync.Mutex
	claimSeen := func(code uint64) bool {
		seenMu.Lock()
		defer seenMu.Unlock()
		if seen[code] {
			return false
		}
		seen[code] = true
		return true
	}

	var g2 errgroup.Group
	var batches [][]uint32
	var removedMu sync.Mutex

	for _, c := range idChunks(len(g.Seqs), s.workerCount()) {
		start, end := c[0], c[1]
		g2.Go(func() error {
			var toDelete []uint32
			for id := start; id < end; id++ {
				if g.Deleted[id] {
					continue
				}
				for _, code := range [2]uint64{g.BeginCode(id), g.EndCode(id)} {
					if !g.IsBranching(code) || !claimSeen(code) {
						continue
					}

					for _, dir := range [2]Dir{Left, Right} {
						branches := g.Neighbors(code, dir)
						if len(branches) < 2 {
							continue
						}

						type candidate struct {
							unitig uint32
							result SimplePathResult
						}
						byEnd := make(map[uint64][]candidate)
						for _, nb := range branches {
							res := g.walkFrom(nb, dir, maxLen, false)
							byEnd[res.EndNode] = append(byEnd[res.EndNode], candidate{nb.UnitigID, res})
						}

						for _, group := range byEnd {
							if len(group) < 2 {
								continue
							}
							shortest := group[0].result.Length
							for _, c := range group {
								if c.result.Length < shortest {
									shortest = c.result.Length
								}
							}

							bestIdx := 0
							for i, c := range group {
								if g.MeanAbundance[c.unitig] > g.MeanAbundance[group[bestIdx].unitig] {
									bestIdx = i
								}
							}
							bestCov := g.MeanAbundance[group[bestIdx].unitig]

							for i, c := range group {
								if i == bestIdx {
									continue
								}
								if float64(c.result.Length) > bulgeMaxLengthFactor*float64(shortest) {
									continue
								}
								if bestCov*bulgeCoverageFactor >= g.MeanAbundance[c.unitig] {
									toDelete = append(toDelete, c.unitig)
								}
							}
						}
					}
				}
			}
			removedMu.Lock()
			batches = append(batches, toDelete)
			removedMu.Unlock()
			return nil
		})
	}
	g2.Wait()
	removed := 0
	for _, ids := range batches {
		removed += deleter.Flush(ids)
	}
	return removed
}

const ecMaxLengthFactor = 10
const ecRCTCCutoff = 4.0

// removeECs deletes short paths directly connecting two branch points
// (erroneous connections), spec.md §4.8: topological length within
// 10k, deleted when the mean coverage at either of its two branch
// points exceeds ecRCTCCutoff times the path's own mean coverage.
func (s *Simplifier) removeECs(cutoff int) int {
	g := s.Graph
	deleter := &NodesDeleter{graph: g}
	maxLen := ecMaxLengthFactor * s.K

	var g2 errgroup.Group
	var removed int64
	var removedMu sync.Mutex

	for _, c := range idChunks(len(g.Seqs), s.workerCount()) {
		start, end := c[0], c[1]
		g2.Go(func() error {
			var toDelete []uint32
			for id := start; id < end; id++ {
				if g.Deleted[id] {
					continue
				}
				begin, fin := g.BeginCode(id), g.EndCode(id)
				if !g.IsBranching(begin) || !g.IsBranching(fin) {
					continue
				}

				entry, ok := g.entryFor(id, begin)
				if !ok {
					continue
				}
				dir, ok := interiorDir(entry)
				if !ok {
					continue
				}

				res := g.walkFrom(Neighbor{Code: fin, UnitigID: id}, dir, maxLen, false)
				if !res.Branching || res.Length > maxLen {
					continue
				}

				if s.passesECRCTC(id, fin) || s.passesECRCTC(id, begin) {
					toDelete = append(toDelete, id)
				}
			}
			n := deleter.Flush(toDelete)
			removedMu.Lock()
			removed += int64(n)
			removedMu.Unlock()
			return nil
		})
	}
	g2.Wait()
	return int(removed)
}

func (s *Simplifier) passesECRCTC(id uint32, farCode uint64) bool {
	g := s.Graph
	var sum float64
	var n int
	for _, dir := range [2]Dir{Left, Right} {
		for _, nb := range g.Neighbors(farCode, dir) {
			if nb.UnitigID == id || g.Deleted[nb.UnitigID] {
				continue
			}
			sum += g.MeanAbundance[nb.UnitigID]
			n++
		}
	}
	if n == 0 {
		return false
	}
	mean := sum / float64(n)
	return mean > ecRCTCCutoff*g.MeanAbundance[id]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
