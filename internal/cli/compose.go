package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csites/osm2svg4opcd/pkg/pipeline"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	gap      float64
	simplify float64
	output   string
	noCache  bool
	refresh  bool
}

// composeCommand creates the compose command, stage 4 of the pipeline.
func (c *CLI) composeCommand() *cobra.Command {
	opts := composeOpts{
		gap:      pipeline.DefaultGap,
		simplify: pipeline.DefaultSimplifyTol,
	}

	cmd := &cobra.Command{
		Use:   "compose <in.svg>",
		Short: "Clip overlapping features by stacking priority",
		Long: `Compose resolves z-order overlaps from the bottom up: each feature loses
the area covered by higher-priority features plus a clearance gap. Fully
occluded features are dropped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd, args[0], &opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.gap, "gap", "g", opts.gap, "clearance between stacked features in drawing units")
	cmd.Flags().Float64Var(&opts.simplify, "simplify", opts.simplify, "vertex-reduction tolerance on clipped output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runCompose(cmd *cobra.Command, input string, opts *composeOpts) error {
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
	out, dropped, hit, err := runner.ComposeWithCacheInfo(cmd.Context(), doc, pipeline.Options{
		Gap:         opts.gap,
		SimplifyTol: opts.simplify,
		Refresh:     opts.refresh,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	for _, id := range dropped {
		printWarning("fully occluded: %s", id)
	}
	prog.done(fmt.Sprintf("Composited %d features", len(out.Features)))

	outFile := outputPath(input, opts.output, ".compose.svg")
	if err := svg.WriteFile(outFile, out); err != nil {
		return err
	}

	printSuccess("Composited %s", input)
	printFile(outFile)
	printStats(len(out.Features), len(dropped), hit)
	printNextStep("Preview", fmt.Sprintf("%s preview %s", appName, outFile))
	return nil
}
