package commands

import (
	"time"

	"github.com/TrevorS/dmaps"
	"github.com/TrevorS/dmaps/internal/csvio"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// EmbedCmd embeds a point set read from CSV.
var EmbedCmd = &cobra.Command{
	Use:   "embed <points.csv>",
	Short: "Compute the diffusion maps embedding of a CSV point set",
	Long: `Read one point per row from a CSV file (whitespace-separated for .txt and
.dat files), compute the k leading eigenpairs
of the diffusion operator, and write eigvals.csv and eigvects.csv to --out.
Row j of eigvects.csv is the embedding of point j.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	addEmbeddingFlags(EmbedCmd.Flags())
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, log, err := load(cmd, embeddingBindings)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	points, err := csvio.ReadPointsFile(args[0])
	if err != nil {
		return err
	}
	log.Info("points loaded", zap.String("path", args[0]), zap.Int("n", len(points)))

	dc, err := cfg.Dmaps(log)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := dmaps.EmbedVectors(points, cfg.Embedding.K, dc)
	if err != nil {
		return errors.Wrapf(err, "embed %s", args[0])
	}
	log.Info("embedding computed", zap.Duration("elapsed", time.Since(start)))

	if err := renderValues(res); err != nil {
		return err
	}
	renderSummary(res)

	var data [][]float64
	if cfg.Output.WriteData {
		data = points
	}
	dir, err := outputDir(cfg, log)
	if err != nil {
		return err
	}
	if err := csvio.WriteEmbedding(dir, res, data); err != nil {
		return err
	}
	pterm.Success.Printfln("embedding written to %s", dir)
	return nil
}
