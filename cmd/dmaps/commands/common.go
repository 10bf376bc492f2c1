package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/TrevorS/dmaps"
	"github.com/TrevorS/dmaps/internal/config"
	"github.com/TrevorS/dmaps/internal/csvio"
	"github.com/TrevorS/dmaps/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// globalBindings maps configuration keys to the root persistent flags.
var globalBindings = map[string]string{
	"log.verbosity": "verbose",
	"log.json":      "json-logs",
}

// embeddingBindings maps configuration keys to the flags added by
// addMetricFlags and addEmbeddingFlags.
var embeddingBindings = map[string]string{
	"embedding.metric":          "metric",
	"embedding.minkowski_p":     "minkowski-p",
	"embedding.kernel_scale":    "kernel-scale",
	"embedding.workers":         "workers",
	"embedding.k":               "k",
	"embedding.bandwidth":       "bandwidth",
	"embedding.density_correct": "density-correct",
	"embedding.threshold":       "threshold",
	"solver.general":            "general",
	"solver.tolerance":          "tolerance",
	"solver.max_iterations":     "max-iterations",
	"solver.seed":               "seed",
	"output.dir":                "out",
	"output.write_data":         "write-data",
	"output.numbered":           "numbered",
}

// addMetricFlags registers the flags that shape the Gaussian affinity.
// Defaults live in config.SetDefaults; flags only override when set.
func addMetricFlags(flags *pflag.FlagSet) {
	flags.String("metric", "euclidean", "Distance: euclidean, manhattan, chebyshev, cosine or minkowski")
	flags.Float64("minkowski-p", 2, "Order of the minkowski metric")
	flags.String("kernel-scale", "squared", "Kernel exponent: squared (d²/ε²) or linear (d²/ε)")
	flags.Int("workers", 0, "Goroutines for the pairwise matrix (0 = NumCPU)")
}

// addEmbeddingFlags registers the flags shared by commands that embed.
func addEmbeddingFlags(flags *pflag.FlagSet) {
	addMetricFlags(flags)
	flags.IntP("k", "k", 2, "Number of eigenpairs")
	flags.String("bandwidth", "mean", "Gaussian bandwidth: mean, median or a positive number")
	flags.Bool("density-correct", false, "Remove sampling density bias before normalizing")
	flags.Float64("threshold", 0, "Zero affinities below this value")
	flags.Bool("general", false, "Use the general (Arnoldi) solver")
	flags.Float64("tolerance", 1e-10, "Relative residual for accepting an eigenpair")
	flags.Int("max-iterations", 0, "Krylov subspace cap (0 = N)")
	flags.Uint64("seed", 1, "Seed for the solver start vector")
	flags.StringP("out", "o", ".", "Output directory")
	flags.Bool("write-data", false, "Also write the input points to data.csv")
	flags.Bool("numbered", false, "Write into a new numbered run directory under --out")
}

// outputDir returns the directory results go to, creating a numbered run
// directory when configured.
func outputDir(cfg *config.Config, log *zap.Logger) (string, error) {
	if !cfg.Output.Numbered {
		return cfg.Output.Dir, nil
	}
	dir, err := csvio.NextRunDir(filepath.Join(cfg.Output.Dir, "run"))
	if err != nil {
		return "", err
	}
	log.Debug("run directory created", zap.String("dir", dir))
	return dir, nil
}

// load builds the configuration for cmd from its --config file, the
// environment and the flags named in bindings, and a logger to match.
func load(cmd *cobra.Command, bindings map[string]string) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range []map[string]string{globalBindings, bindings} {
		for key, name := range b {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, nil, errors.Wrapf(err, "bind flag --%s", name)
				}
			}
		}
	}
	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Verbosity, cfg.Log.JSON)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize logger")
	}
	if path != "" {
		log.Info("configuration loaded", zap.String("path", path))
	}
	return cfg, log, nil
}

// renderValues prints the eigenvalues of res as a table.
func renderValues(res *dmaps.Result) error {
	data := pterm.TableData{{"#", "eigenvalue", "imag"}}
	for i, v := range res.Values {
		im := ""
		if res.Spectrum != nil {
			im = strconv.FormatFloat(imag(res.Spectrum[i]), 'g', 6, 64)
		}
		data = append(data, []string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', 12, 64), im})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// renderSummary prints the diagnostics of res.
func renderSummary(res *dmaps.Result) {
	if res.Epsilon > 0 {
		pterm.Info.Printfln("epsilon %g", res.Epsilon)
	}
	pterm.Info.Printfln("%d eigenpairs after %d Krylov steps", len(res.Values), res.Iterations)
	if res.Components > 1 {
		pterm.Warning.Printfln("affinity graph has %d components; eigenvalue 1 is repeated", res.Components)
	}
	for _, w := range res.Warnings {
		pterm.Warning.Println(w.Error())
	}
}

// FormatError renders err with any hints attached to it.
func FormatError(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg = fmt.Sprintf("%s\n%s %s", msg, pterm.LightCyan("hint:"), hint)
	}
	return msg
}
