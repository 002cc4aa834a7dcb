package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/csites/osm2svg4opcd/pkg/pipeline"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	styles         string
	width          float64
	tightness      float64
	distance       float64
	samplesPerUnit float64
	minSamples     int
	gap            float64
	simplify       float64
	output         string
	keepStages     bool
	noCache        bool
	refresh        bool
}

// runCommand creates the run command, which executes all four stages.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{
		styles:         "styles.toml",
		width:          pipeline.DefaultWidth,
		tightness:      pipeline.DefaultTightness,
		distance:       pipeline.DefaultOutsetDistance,
		samplesPerUnit: pipeline.DefaultSamplesPerUnit,
		minSamples:     pipeline.DefaultMinSamples,
		gap:            pipeline.DefaultGap,
		simplify:       pipeline.DefaultSimplifyTol,
	}

	cmd := &cobra.Command{
		Use:   "run <map.osm>",
		Short: "Run the full convert, smooth, outset, compose pipeline",
		Long: `Run executes all four pipeline stages in order and writes the final
composited document. Intermediate artifacts are cached per stage, so a rerun
with the same input and options only recomputes the stages whose options
changed. Use --keep-stages to also write each stage's artifact next to the
output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.styles, "styles", "s", opts.styles, "TOML style table")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "output width in drawing units")
	cmd.Flags().Float64VarP(&opts.tightness, "tightness", "t", opts.tightness, "handle length as a fraction of the neighbor chord")
	cmd.Flags().Float64VarP(&opts.distance, "distance", "d", opts.distance, "fallback outset distance in drawing units")
	cmd.Flags().Float64Var(&opts.samplesPerUnit, "samples-per-unit", opts.samplesPerUnit, "boundary samples per drawing unit")
	cmd.Flags().IntVar(&opts.minSamples, "min-samples", opts.minSamples, "minimum boundary samples per subpath")
	cmd.Flags().Float64VarP(&opts.gap, "gap", "g", opts.gap, "clearance between stacked features in drawing units")
	cmd.Flags().Float64Var(&opts.simplify, "simplify", opts.simplify, "vertex-reduction tolerance on clipped output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().BoolVar(&opts.keepStages, "keep-stages", false, "write each stage's artifact next to the output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runPipeline(cmd *cobra.Command, input string, opts *runOpts) error {
	logger := loggerFromContext(cmd.Context())

	table, err := loadTable(opts.styles)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(cmd.Context(), data, pipeline.Options{
		Styles:         table,
		Width:          opts.width,
		Tightness:      opts.tightness,
		OutsetDistance: opts.distance,
		SamplesPerUnit: opts.samplesPerUnit,
		MinSamples:     opts.minSamples,
		Gap:            opts.gap,
		SimplifyTol:    opts.simplify,
		Refresh:        opts.refresh,
		RunID:          uuid.NewString(),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	for _, id := range res.Dropped {
		printWarning("fully occluded: %s", id)
	}
	prog.done(fmt.Sprintf("Rendered %d features", res.Stats.FeatureCount))

	out := outputPath(input, opts.output, ".svg")
	if err := svg.WriteFile(out, res.Document); err != nil {
		return err
	}

	if opts.keepStages {
		if err := writeStageArtifacts(out, res.Artifacts); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", input)
	printFile(out)
	printSummary(res.Stats.FeatureCount, len(res.Warnings), len(res.Dropped), [4]bool{
		res.CacheInfo.ConvertHit,
		res.CacheInfo.SmoothHit,
		res.CacheInfo.OutsetHit,
		res.CacheInfo.ComposeHit,
	})
	return nil
}

// writeStageArtifacts writes each cached stage artifact next to the final
// output, named <out>.<stage>.svg.
func writeStageArtifacts(out string, artifacts map[string][]byte) error {
	base := strings.TrimSuffix(out, ".svg")
	for _, stage := range []string{
		pipeline.StageConvert,
		pipeline.StageSmooth,
		pipeline.StageOutset,
		pipeline.StageCompose,
	} {
		data, ok := artifacts[stage]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s.%s.svg", base, stage)
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("write stage artifact %s: %w", name, err)
		}
		printFile(name)
	}
	return nil
}
