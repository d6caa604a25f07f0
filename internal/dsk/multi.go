package dsk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GATB/gatb-core-sub000/bank"
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

// RunMultiBank partitions and counts one or more banks against a
// shared Plan and minimizer table, combining per-bank abundances
// according to Config.SolidityKind, spec.md §3's multi-bank solid
// k-mer definition. Each bank is partitioned into its own subdirectory
// under dir so the existing single-bank on-disk record formats (no
// record carries a bank index) need no change. A single bank takes a
// separate path: one Partitioner and one Counter run directly in dir.
func RunMultiBank(cfg Config, plan Plan, table *minimizer.RepartitionTable, dir string, compressed bool, banks []bank.Bank) (*SolidStore, *Histogram, error) {
	if len(banks) == 0 {
		return nil, nil, &engine.ConfigurationError{Reason: "no banks given"}
	}
	if len(banks) == 1 {
		partitioner := &Partitioner{Config: cfg, Plan: plan, Dir: dir, Table: table, Compressed: compressed}
		if _, err := partitioner.Run(banks[0]); err != nil {
			return nil, nil, err
		}
		counter := &Counter{Config: cfg, Plan: plan, Dir: dir}
		return counter.Run()
	}

	bankDirs := make([]string, len(banks))
	var errs engine.MultiError
	for i, b := range banks {
		bdir := filepath.Join(dir, fmt.Sprintf("bank%02d", i))
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return nil, nil, &engine.FilesystemError{Path: bdir, Err: err}
		}
		bankDirs[i] = bdir

		partitioner := &Partitioner{Config: cfg, Plan: plan, Dir: bdir, Table: table, Compressed: compressed}
		if _, err := partitioner.Run(b); err != nil {
			errs.Add(err)
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, nil, err
	}

	counter := &Counter{Config: cfg, Plan: plan, Dir: dir}
	return counter.CountMulti(bankDirs)
}
