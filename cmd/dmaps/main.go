package main

import (
	"os"

	"github.com/TrevorS/dmaps/cmd/dmaps/commands"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dmaps",
	Short: "Diffusion maps embeddings of point sets",
	Long: `dmaps computes diffusion maps: low-dimensional embeddings built from the
leading eigenvectors of a Markov operator on a Gaussian affinity graph.

Settings come from defaults, a TOML file (--config), DMAPS_* environment
variables and flags, in increasing precedence.

Examples:
  dmaps embed points.csv -k 3 --out ./embedding    # embed a CSV point set
  dmaps sweep points.csv --lo 1e-3 --hi 1e3        # pick a bandwidth
  dmaps swissroll -n 2000 --out ./swissroll        # demo on a swiss roll`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	rootCmd.AddCommand(commands.EmbedCmd)
	rootCmd.AddCommand(commands.SweepCmd)
	rootCmd.AddCommand(commands.SwissRollCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(commands.FormatError(err))
		os.Exit(1)
	}
}
