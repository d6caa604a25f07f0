// Package bcalm2 implements the local graph compaction stage of the
// pipeline: the Bucketizer, Compactor, and Gluer of spec.md §4.4-4.6,
// grounded on the teacher's partitioned-file model (unikmer/cmd/merge.go)
// and, for the glue algorithm itself, bcalm2/bglue_algo.cpp from
// original_source/.
package bcalm2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GATB/gatb-core-sub000/internal/dsk"
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/iox"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

// BucketEntry is one solid k-mer routed into a minimizer bucket.
type BucketEntry struct {
	Code      uint64
	Abundance uint16
}

// Buckets maps a minimizer value to every solid k-mer routed to it,
// spec.md §4.4.
type Buckets map[uint64][]BucketEntry

// Bucketizer re-partitions solid k-mers by minimizer rather than by
// DSK partition, spec.md §4.4.
type Bucketizer struct {
	K          int
	M          int
	Order      minimizer.Order
	Freq       minimizer.FrequencyTable
	Table      *minimizer.RepartitionTable
	Dir        string
	Compressed bool
	NbCores    int
}

func (bz *Bucketizer) travellerPath(part int) string {
	return filepath.Join(bz.Dir, fmt.Sprintf("bucket_traveller_%03d.bin", part))
}

// Run buckets every solid k-mer in store. A k-mer whose two ends
// repartition to different partitions is spilled to an on-disk
// traveller file for the owning partition, then folded into that
// partition's buckets in a second pass over the whole store -- the
// two-pass structure spec.md §4.4 describes ("consume the traveller
// file that was produced in a previous pass"). The first pass runs one
// worker per partition via the pool (spec.md §5), so the shared
// buckets map and the per-partition traveller writes each carry their
// own mutex.
func (bz *Bucketizer) Run(store *dsk.SolidStore) (Buckets, error) {
	buckets := make(Buckets)
	var bucketsMu sync.Mutex

	numParts := len(store.Partitions)
	travWriters := make(map[int]*iox.WriteCloser, numParts)
	var travMapMu sync.Mutex
	travWriteMu := make([]sync.Mutex, numParts)
	travWriterFor := func(part int) (*iox.WriteCloser, error) {
		travMapMu.Lock()
		defer travMapMu.Unlock()
		if w, ok := travWriters[part]; ok {
			return w, nil
		}
		w, err := iox.CreateStream(bz.travellerPath(part), bz.Compressed)
		if err != nil {
			return nil, &engine.FilesystemError{Path: bz.travellerPath(part), Err: err}
		}
		travWriters[part] = w
		return w, nil
	}

	workers := bz.NbCores
	if workers <= 0 {
		workers = 1
	}

	var errs engine.MultiError
	var errsMu sync.Mutex
	addErr := func(err error) {
		errsMu.Lock()
		errs.Add(err)
		errsMu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for part := 0; part < numParts; part++ {
		part := part
		g.Go(func() error {
			for _, sk := range store.Partitions[part] {
				left, right, err := kmerMinimizers(sk.Code, store.K, bz.M, bz.Order, bz.Freq)
				if err != nil {
					addErr(err)
					continue
				}

				key := left
				if bz.Table.Partition(right) == part && bz.Table.Partition(left) != part {
					key = right
				}
				bucketsMu.Lock()
				buckets[key] = append(buckets[key], BucketEntry{Code: sk.Code, Abundance: sk.Abundance})
				bucketsMu.Unlock()

				if left == right {
					continue
				}
				lp, rp := bz.Table.Partition(left), bz.Table.Partition(right)
				if lp == rp {
					continue
				}
				maxMin := left
				if right > left {
					maxMin = right
				}
				targetPart := bz.Table.Partition(maxMin)
				w, err := travWriterFor(targetPart)
				if err != nil {
					addErr(err)
					continue
				}
				rec := bucketTravellerRecord{Code: sk.Code, Abundance: sk.Abundance, Minimizer: maxMin}
				travWriteMu[targetPart].Lock()
				err = writeBucketTraveller(w, rec)
				travWriteMu[targetPart].Unlock()
				if err != nil {
					addErr(&engine.FilesystemError{Path: bz.travellerPath(targetPart), Err: err})
				}
			}
			return nil
		})
	}
	g.Wait()

	for _, w := range travWriters {
		w.Close()
	}

	for part := 0; part < numParts; part++ {
		path := bz.travellerPath(part)
		r, err := iox.OpenStream(path)
		if err != nil {
			continue
		}
		bz.consumeTraveller(r, buckets, &errs)
		r.Close()
		os.Remove(path)
	}

	return buckets, errs.ErrOrNil()
}

func (bz *Bucketizer) consumeTraveller(r *iox.ReadCloser, buckets Buckets, errs *engine.MultiError) {
	for {
		rec, err := readBucketTraveller(r.Reader)
		if err != nil {
			if err == io.EOF {
				return
			}
			errs.Add(&engine.FilesystemError{Err: err})
			return
		}
		buckets[rec.Minimizer] = append(buckets[rec.Minimizer], BucketEntry{Code: rec.Code, Abundance: rec.Abundance})
	}
}
