package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GATB/gatb-core-sub000/internal/unitig"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify [unitig fasta]",
	Short: "remove tips, bulges, and erroneous connections from a unitig graph",
	Run:   runSimplify,
}

func init() {
	RootCmd.AddCommand(simplifyCmd)
	simplifyCmd.Flags().StringP("fasta-out", "f", "", "output cleaned unitig FASTA path (default: out-dir/unitigs.simplified.fa)")
}

func runSimplify(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		checkError(errArgs("simplify takes exactly one unitig FASTA file argument"))
	}

	fb, err := openFileBank(expandPath(args[0]))
	checkError(err)
	defer fb.Close()

	k := getFlagPositiveInt(cmd, "kmer-size")
	g, err := unitig.Load(fb, k)
	checkError(err)
	log.Infof("simplify: loaded %d unitigs", len(g.Seqs))

	s := &unitig.Simplifier{Graph: g, K: k, NbCores: getFlagPositiveInt(cmd, "threads")}
	report := s.Run()
	log.Infof("simplify: removed %d tips, %d bulges, %d erroneous connections",
		report.TipsRemoved, report.BulgesRemoved, report.ECsRemoved)

	outPath := expandPath(getFlagString(cmd, "fasta-out"))
	if outPath == "" {
		outPath = expandPath(getFlagString(cmd, "out-dir")) + "/unitigs.simplified.fa"
	}
	checkError(writeSurvivingUnitigs(outPath, g))
	log.Infof("simplify: wrote surviving unitigs to %s", outPath)
}

// writeSurvivingUnitigs writes every non-deleted unitig as a plain
// FASTA record, renumbering ids to the compacted output's own
// sequence (the Deleted ones simply disappear rather than leaving
// gaps, same as BCALM2's own final write pass).
func writeSurvivingUnitigs(path string, g *unitig.UnitigGraph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	id := 0
	for i, seq := range g.Seqs {
		if g.Deleted[i] {
			continue
		}
		km := g.MeanAbundance[i]
		if _, err := fmt.Fprintf(f, ">%d LN:i:%d KM:f:%.1f\n%s\n", id, len(seq), km, seq); err != nil {
			return err
		}
		id++
	}
	return nil
}
