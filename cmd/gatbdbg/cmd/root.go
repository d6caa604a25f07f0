// Package cmd implements the gatbdbg command-line tool: a thin cobra
// wrapper over internal/dsk, internal/bcalm2 and internal/unitig,
// grounded on the teacher's cobra layout (unikmer/cmd/root.go) and
// persistent-flag conventions.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"

	"github.com/GATB/gatb-core-sub000/internal/dsk"
)

var log = logging.MustGetLogger("gatbdbg")

// RootCmd is the base command when gatbdbg is called without a subcommand.
var RootCmd = &cobra.Command{
	Use:   "gatbdbg",
	Short: "de Bruijn graph construction and compaction debugger",
	Long: `gatbdbg - de Bruijn graph construction and compaction toolkit

Counts solid k-mers from FASTA input (DSK), compacts them into
maximal-length unitigs (BCALM2), and simplifies the resulting graph
by removing tips, bulges, and erroneous connections.
`,
}

// Execute adds all child commands to RootCmd and runs it. Called once
// from main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultThreads := runtime.NumCPU()
	if defaultThreads > 2 {
		defaultThreads = 2
	}

	RootCmd.PersistentFlags().IntP("threads", "j", defaultThreads, "number of CPUs to use")
	RootCmd.PersistentFlags().IntP("kmer-size", "k", 31, "k-mer size")
	RootCmd.PersistentFlags().IntP("minimizer-size", "m", 10, "minimizer size")
	RootCmd.PersistentFlags().Int("abundance-min", 2, "minimum abundance for a k-mer to be solid")
	RootCmd.PersistentFlags().Int("abundance-max", 0, "maximum abundance for a k-mer to be solid (0 = unbounded)")
	RootCmd.PersistentFlags().String("solidity-kind", "one", "multi-bank solidity combination: one|all|min|max|sum")
	RootCmd.PersistentFlags().String("max-memory", "", "per-partition memory budget, e.g. 256M (0/empty = default)")
	RootCmd.PersistentFlags().String("max-disk", "", "total disk budget, e.g. 4G (0/empty = default)")
	RootCmd.PersistentFlags().String("minimizer-type", "lex", "minimizer ordering: lex|frequency")
	RootCmd.PersistentFlags().Int("histo-max", 10000, "top histogram bucket (abundances at or above collapse into it)")
	RootCmd.PersistentFlags().Int("histo-cutoff", 0, "histogram cutoff (accepted but not applied: abundance_min is never auto-detected)")
	RootCmd.PersistentFlags().Bool("no-compress", false, "do not pgzip-compress intermediate files")
	RootCmd.PersistentFlags().StringP("out-dir", "o", ".", "directory for intermediate and output files")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print progress bars and extra logging")
}

// expandPath resolves a leading "~" against the user's home directory,
// the same convenience the teacher's CLI commands apply to every
// path-like flag (Schaudge-kmcp/kmcp/cmd).
func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// checkError prints err and exits if it is non-nil, the same
// fail-fast convention every unikmer/cmd command uses.
func checkError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "gatbdbg: "+err.Error())
		os.Exit(1)
	}
}

func getFlagString(cmd *cobra.Command, flag string) string {
	s, err := cmd.Flags().GetString(flag)
	checkError(err)
	return s
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	i, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return i
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return b
}

// getFlagPositiveInt returns flag's value and checkErrors if it isn't > 0.
func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	i := getFlagInt(cmd, flag)
	if i <= 0 {
		checkError(fmt.Errorf("value of flag --%s must be positive", flag))
	}
	return i
}

// dskConfig builds a dsk.Config from RootCmd's persistent flags,
// shared by every subcommand that touches the counting/compaction
// pipeline.
func dskConfig(cmd *cobra.Command) dsk.Config {
	solidity, err := dsk.ParseSolidityKind(getFlagString(cmd, "solidity-kind"))
	checkError(err)

	var minimizerType dsk.MinimizerType
	switch getFlagString(cmd, "minimizer-type") {
	case "", "lex":
		minimizerType = dsk.MinimizerLex
	case "frequency":
		minimizerType = dsk.MinimizerFrequency
	default:
		checkError(fmt.Errorf("unknown --minimizer-type: %s", getFlagString(cmd, "minimizer-type")))
	}

	maxMemory, err := parseByteSize(getFlagString(cmd, "max-memory"))
	checkError(err)
	maxDisk, err := parseByteSize(getFlagString(cmd, "max-disk"))
	checkError(err)

	return dsk.Config{
		KmerSize:        getFlagPositiveInt(cmd, "kmer-size"),
		MinimizerSize:   getFlagPositiveInt(cmd, "minimizer-size"),
		AbundanceMin:    uint16(getFlagInt(cmd, "abundance-min")),
		AbundanceMax:    uint16(getFlagInt(cmd, "abundance-max")),
		SolidityKind:    solidity,
		MaxMemory:       maxMemory,
		MaxDisk:         maxDisk,
		NbCores:         getFlagPositiveInt(cmd, "threads"),
		MinimizerType:   minimizerType,
		HistogramMax:    getFlagInt(cmd, "histo-max"),
		HistogramCutoff: getFlagInt(cmd, "histo-cutoff"),
	}
}

// parseByteSize accepts go-humanize-style sizes ("256M", "4G") or a
// bare byte count; an empty string means "unset" (0).
func parseByteSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	return int64(n), err
}
