package commands

import (
	"math"
	"strconv"

	"github.com/TrevorS/dmaps"
	"github.com/TrevorS/dmaps/internal/csvio"
	"github.com/TrevorS/dmaps/kernels"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SweepCmd prints the total affinity over a log-spaced range of bandwidths.
var SweepCmd = &cobra.Command{
	Use:   "sweep <points.csv>",
	Short: "Sum the Gaussian affinity over a range of bandwidths",
	Long: `Sum every entry of the Gaussian affinity of a CSV point set at log-spaced
bandwidths between --lo and --hi. The sum grows from N to N²; a good
bandwidth sits where the log-log slope is steepest, which is marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	addMetricFlags(SweepCmd.Flags())
	SweepCmd.Flags().Float64("lo", 1e-3, "Smallest bandwidth")
	SweepCmd.Flags().Float64("hi", 1e3, "Largest bandwidth")
	SweepCmd.Flags().Int("n", 25, "Number of bandwidths")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := load(cmd, embeddingBindings)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	lo, _ := cmd.Flags().GetFloat64("lo")
	hi, _ := cmd.Flags().GetFloat64("hi")
	n, _ := cmd.Flags().GetInt("n")
	grid, err := kernels.EpsilonGrid(lo, hi, n)
	if err != nil {
		return err
	}

	points, err := csvio.ReadPointsFile(args[0])
	if err != nil {
		return err
	}
	dc, err := cfg.Dmaps(log)
	if err != nil {
		return err
	}
	sums, err := dmaps.EpsilonSweep(points, grid, dc.Metric, dc)
	if err != nil {
		return err
	}

	best := steepest(grid, sums)
	log.Info("sweep finished", zap.Int("n", len(points)), zap.Float64("steepest", grid[best]))

	data := pterm.TableData{{"epsilon", "sum", "log-log slope"}}
	for i := range grid {
		slope := ""
		if i > 0 {
			slope = strconv.FormatFloat(logSlope(grid, sums, i), 'f', 3, 64)
		}
		eps := strconv.FormatFloat(grid[i], 'e', 3, 64)
		if i == best {
			eps = pterm.Green(eps + " *")
		}
		data = append(data, []string{eps, strconv.FormatFloat(sums[i], 'g', 8, 64), slope})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// logSlope is d log(sum) / d log(eps) between grid points i-1 and i.
func logSlope(grid, sums []float64, i int) float64 {
	return (math.Log(sums[i]) - math.Log(sums[i-1])) / (math.Log(grid[i]) - math.Log(grid[i-1]))
}

// steepest returns the index ending the interval of largest log-log slope.
func steepest(grid, sums []float64) int {
	best, bestSlope := 0, math.Inf(-1)
	for i := 1; i < len(grid); i++ {
		if s := logSlope(grid, sums, i); s > bestSlope {
			best, bestSlope = i, s
		}
	}
	return best
}
