package cmd

import (
	"github.com/spf13/cobra"

	"github.com/GATB/gatb-core-sub000/container"
	"github.com/GATB/gatb-core-sub000/internal/bcalm2"
	"github.com/GATB/gatb-core-sub000/internal/dsk"
	"github.com/GATB/gatb-core-sub000/internal/engine"
	"github.com/GATB/gatb-core-sub000/internal/minimizer"
)

var compactCmd = &cobra.Command{
	Use:   "compact [container file]",
	Short: "compact a DSK solid-k-mer container into unitigs",
	Run:   runCompact,
}

func init() {
	RootCmd.AddCommand(compactCmd)
	compactCmd.Flags().StringP("fasta-out", "f", "", "output unitig FASTA path (default: out-dir/unitigs.fa)")
}

func runCompact(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		checkError(errArgs("compact takes exactly one container file argument"))
	}

	ct, err := container.Open(expandPath(args[0]))
	checkError(err)
	defer ct.Close()

	storeBytes, err := ct.GetDataset("dsk/solid")
	checkError(err)
	store, err := dsk.DecodeSolidStore(storeBytes)
	checkError(err)

	cfg := dskConfig(cmd)
	dir := expandPath(getFlagString(cmd, "out-dir"))
	compressed := !getFlagBool(cmd, "no-compress")
	nbCores := getFlagPositiveInt(cmd, "threads")

	var order minimizer.Order
	var freq minimizer.FrequencyTable
	if cfg.MinimizerType == dsk.MinimizerFrequency {
		order = minimizer.FrequencyOrder
	}

	bz := &bcalm2.Bucketizer{
		K: store.K, M: cfg.MinimizerSize, Order: order, Freq: freq,
		Table: minimizer.NewRepartitionTable(nil, len(store.Partitions)),
		Dir:   dir, Compressed: compressed, NbCores: nbCores,
	}
	buckets, err := bz.Run(store)
	checkError(err)
	log.Infof("compact: %d minimizer buckets", len(buckets))

	compactor := &bcalm2.Compactor{
		K: store.K, M: cfg.MinimizerSize, Order: order, Freq: freq,
		Dir: dir, Compressed: compressed, NbCores: nbCores,
	}
	gluePaths, err := compactor.Run(buckets)
	checkError(err)

	outPath := expandPath(getFlagString(cmd, "fasta-out"))
	if outPath == "" {
		outPath = dir + "/unitigs.fa"
	}

	stats := &engine.Stats{}
	gluer := &bcalm2.Gluer{
		K: store.K, NbCores: nbCores,
		Log: func(format string, a ...interface{}) { log.Infof(format, a...) },
	}
	checkError(gluer.Run(gluePaths, outPath, compressed, stats))
	log.Infof("compact: wrote %d unitigs to %s", stats.UnitigsEmitted, outPath)
}
