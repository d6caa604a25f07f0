package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GATB/gatb-core-sub000/bank"
	"github.com/GATB/gatb-core-sub000/container"
	"github.com/GATB/gatb-core-sub000/internal/dsk"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

var countCmd = &cobra.Command{
	Use:   "count [fasta file]...",
	Short: "count solid k-mers and write a DSK container (give multiple files to combine them as separate banks under --solidity-kind)",
	Run:   runCount,
}

func init() {
	RootCmd.AddCommand(countCmd)
	countCmd.Flags().StringP("container", "", "", "output container path (default: out-dir/dsk.gatbc)")
}

func runCount(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		checkError(errArgs("count takes at least one FASTA file argument"))
	}

	cfg := dskConfig(cmd)
	cfg.Log = func(format string, a ...interface{}) { log.Infof(format, a...) }

	inPaths := make([]string, len(args))
	for i, a := range args {
		inPaths[i] = expandPath(a)
	}

	sizingBank, err := openFileBank(inPaths[0])
	checkError(err)
	defer sizingBank.Close()

	configurator := &dsk.Configurator{Config: cfg, Log: cfg.Log}
	plan, err := configurator.Configure(sizingBank)
	checkError(err)

	dir := expandPath(getFlagString(cmd, "out-dir"))
	compressed := !getFlagBool(cmd, "no-compress")
	table := minimizer.NewRepartitionTable(nil, plan.Partitions)

	banks := make([]bank.Bank, len(inPaths))
	for i, p := range inPaths {
		fb, err := openFileBank(p)
		checkError(err)
		defer fb.Close()
		banks[i] = fb
	}

	store, hist, err := dsk.RunMultiBank(cfg, plan, table, dir, compressed, banks)
	checkError(err)

	var total int64
	for _, part := range store.Partitions {
		total += int64(len(part))
	}
	if len(banks) > 1 {
		log.Infof("count: %d banks, %d solid k-mers (solidity=%s)", len(banks), total, cfg.SolidityKind)
	} else {
		log.Infof("count: %d solid k-mers", total)
	}

	outPath := expandPath(getFlagString(cmd, "container"))
	if outPath == "" {
		outPath = filepath.Join(dir, "dsk.gatbc")
	}
	ct := container.Create(outPath)

	storeBytes, err := dsk.EncodeSolidStore(store)
	checkError(err)
	checkError(ct.PutDataset("dsk/solid", storeBytes))

	histBytes, err := dsk.EncodeHistogram(hist)
	checkError(err)
	checkError(ct.PutDataset("dsk/histogram", histBytes))

	checkError(ct.PutConfiguration(container.Configuration{
		KmerSize:      cfg.KmerSize,
		MinimizerSize: cfg.MinimizerSize,
		Passes:        plan.Passes,
		Partitions:    plan.Partitions,
		AbundanceMin:  cfg.AbundanceMin,
		AbundanceMax:  cfg.AbundanceMax,
		SolidityKind:  cfg.SolidityKind.String(),
	}))

	checkError(ct.Close())
	log.Infof("count: wrote %s", outPath)
}

type errArgs string

func (e errArgs) Error() string { return string(e) }
