package commands

import (
	"math/rand/v2"

	"github.com/TrevorS/dmaps"
	"github.com/TrevorS/dmaps/internal/csvio"
	"github.com/TrevorS/dmaps/internal/dataset"
	"github.com/TrevorS/dmaps/kernels"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SwissRollCmd generates a swiss roll and embeds it.
var SwissRollCmd = &cobra.Command{
	Use:   "swissroll",
	Short: "Embed a generated swiss roll",
	Long: `Sample a swiss roll, embed it, and write data.csv, eigvals.csv and
eigvects.csv to --out. The leading non-trivial eigenvectors recover the
unrolled coordinates.

With --kernel-eps the points are embedded with the fixed Gaussian kernel
exp(-‖x-y‖²/eps) instead of the bandwidth policy.`,
	Args: cobra.NoArgs,
	RunE: runSwissRoll,
}

func init() {
	addEmbeddingFlags(SwissRollCmd.Flags())
	SwissRollCmd.Flags().IntP("n", "n", 1000, "Number of points (random roll)")
	SwissRollCmd.Flags().Bool("grid", false, "Use an arc-length spaced grid instead of uniform samples")
	SwissRollCmd.Flags().Int("nxy", 100, "Points along the spiral (grid roll)")
	SwissRollCmd.Flags().Int("nz", 10, "Layers along z (grid roll)")
	SwissRollCmd.Flags().Float64("deviation", 0.01, "Uniform noise amplitude (grid roll)")
	SwissRollCmd.Flags().Uint64("data-seed", 0, "Seed for sampling the roll")
	SwissRollCmd.Flags().Float64("kernel-eps", 0, "Embed with a fixed Gaussian kernel of this eps")
}

func runSwissRoll(cmd *cobra.Command, args []string) error {
	cfg, log, err := load(cmd, embeddingBindings)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	flags := cmd.Flags()
	dataSeed, _ := flags.GetUint64("data-seed")
	rng := rand.New(rand.NewPCG(dataSeed, dataSeed))

	var points [][]float64
	if grid, _ := flags.GetBool("grid"); grid {
		nxy, _ := flags.GetInt("nxy")
		nz, _ := flags.GetInt("nz")
		deviation, _ := flags.GetFloat64("deviation")
		points = dataset.SwissRollGrid(nxy, nz, deviation, rng)
	} else {
		n, _ := flags.GetInt("n")
		points = dataset.SwissRoll(n, rng)
	}
	log.Info("swiss roll generated", zap.Int("n", len(points)))

	dc, err := cfg.Dmaps(log)
	if err != nil {
		return err
	}

	var res *dmaps.Result
	if eps, _ := flags.GetFloat64("kernel-eps"); eps != 0 {
		if eps < 0 {
			return errors.Wrapf(dmaps.ErrInput, "--kernel-eps must be > 0, got %v", eps)
		}
		res, err = dmaps.EmbedWithKernel(points, cfg.Embedding.K, kernels.Gaussian(eps), dc)
	} else {
		res, err = dmaps.EmbedVectors(points, cfg.Embedding.K, dc)
	}
	if err != nil {
		return errors.Wrap(err, "embed swiss roll")
	}

	if err := renderValues(res); err != nil {
		return err
	}
	renderSummary(res)
	dir, err := outputDir(cfg, log)
	if err != nil {
		return err
	}
	if err := csvio.WriteEmbedding(dir, res, points); err != nil {
		return err
	}
	pterm.Success.Printfln("swiss roll and embedding written to %s", dir)
	return nil
}
