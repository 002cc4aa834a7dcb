package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csites/osm2svg4opcd/pkg/pipeline"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// outsetOpts holds the command-line flags for the outset command.
type outsetOpts struct {
	distance       float64
	samplesPerUnit float64
	minSamples     int
	output         string
	noCache        bool
	refresh        bool
}

// outsetCommand creates the outset command, stage 3 of the pipeline.
func (c *CLI) outsetCommand() *cobra.Command {
	opts := outsetOpts{
		distance:       pipeline.DefaultOutsetDistance,
		samplesPerUnit: pipeline.DefaultSamplesPerUnit,
		minSamples:     pipeline.DefaultMinSamples,
	}

	cmd := &cobra.Command{
		Use:   "outset <in.svg>",
		Short: "Grow outset-selected features by their configured distance",
		Long: `Outset samples each selected feature's boundary, offsets it outward with
round joins, and keeps the densest resulting ring. Features whose style rule
carries its own outset-distance use that instead of --distance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOutset(cmd, args[0], &opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.distance, "distance", "d", opts.distance, "fallback outset distance in drawing units")
	cmd.Flags().Float64Var(&opts.samplesPerUnit, "samples-per-unit", opts.samplesPerUnit, "boundary samples per drawing unit")
	cmd.Flags().IntVar(&opts.minSamples, "min-samples", opts.minSamples, "minimum boundary samples per subpath")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runOutset(cmd *cobra.Command, input string, opts *outsetOpts) error {
	logger := loggerFromContext(cmd.Context())

	doc, err := svg.ReadFile(input)
	if err != nil {
		return err
	}
	for _, w := range doc.Warnings {
		printWarning("%s", w)
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	out, warnings, hit := runner.OutsetWithCacheInfo(cmd.Context(), doc, pipeline.Options{
		OutsetDistance: opts.distance,
		SamplesPerUnit: opts.samplesPerUnit,
		MinSamples:     opts.minSamples,
		Refresh:        opts.refresh,
		Logger:         logger,
	})
	for _, w := range warnings {
		printWarning("kept original path: %s", w)
	}
	prog.done(fmt.Sprintf("Outset applied to %d features", len(out.Features)))

	outFile := outputPath(input, opts.output, ".outset.svg")
	if err := svg.WriteFile(outFile, out); err != nil {
		return err
	}

	printSuccess("Outset %s", input)
	printFile(outFile)
	printStats(len(out.Features), len(warnings), hit)
	printNextStep("Next", fmt.Sprintf("%s compose %s", appName, outFile))
	return nil
}
