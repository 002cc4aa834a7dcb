package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csites/osm2svg4opcd/pkg/pipeline"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// smoothOpts holds the command-line flags for the smooth command.
type smoothOpts struct {
	tightness float64
	output    string
	noCache   bool
	refresh   bool
}

// smoothCommand creates the smooth command, stage 2 of the pipeline.
func (c *CLI) smoothCommand() *cobra.Command {
	opts := smoothOpts{tightness: pipeline.DefaultTightness}

	cmd := &cobra.Command{
		Use:   "smooth <in.svg>",
		Short: "Fit auto-smooth curves through every path",
		Long: `Smooth replaces straight path segments with cubic curves whose tangents
follow the chord between each node's neighbors, the way a drawing tool's
auto-smooth node mode does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSmooth(cmd, args[0], &opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.tightness, "tightness", "t", opts.tightness, "handle length as a fraction of the neighbor chord")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runSmooth(cmd *cobra.Command, input string, opts *smoothOpts) error {
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
	out, warnings, hit := runner.SmoothWithCacheInfo(cmd.Context(), doc, pipeline.Options{
		Tightness: opts.tightness,
		Refresh:   opts.refresh,
		Logger:    logger,
	})
	prog.done(fmt.Sprintf("Smoothed %d features", len(out.Features)))

	outFile := outputPath(input, opts.output, ".smooth.svg")
	if err := svg.WriteFile(outFile, out); err != nil {
		return err
	}

	for _, w := range warnings {
		printWarning("%s", w)
	}
	printSuccess("Smoothed %s", input)
	printFile(outFile)
	printStats(len(out.Features), len(warnings), hit)
	printNextStep("Next", fmt.Sprintf("%s outset %s", appName, outFile))
	return nil
}
