package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csites/osm2svg4opcd/pkg/pipeline"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	styles  string  // style table path
	width   float64 // output document width in drawing units
	output  string  // output file path (derived from input if empty)
	noCache bool    // disable the stage cache
	refresh bool    // bypass cached artifacts
}

// convertCommand creates the convert command, stage 1 of the pipeline.
func (c *CLI) convertCommand() *cobra.Command {
	opts := convertOpts{styles: "styles.toml", width: pipeline.DefaultWidth}

	cmd := &cobra.Command{
		Use:   "convert <map.osm>",
		Short: "Convert map features into a styled SVG document",
		Long: `Convert projects an OSM extract into drawing space, resolves each
feature's style from the TOML table, and replaces stroked ways with filled
outline paths. Features without a matching style rule are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.styles, "styles", "s", opts.styles, "TOML style table")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "output width in drawing units")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, opts *convertOpts) error {
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
	doc, warnings, hit, err := runner.ConvertWithCacheInfo(cmd.Context(), data, pipeline.Options{
		Styles:  table,
		Width:   opts.width,
		Refresh: opts.refresh,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning("skipped: %s", w)
	}
	prog.done(fmt.Sprintf("Converted %d features", len(doc.Features)))

	out := outputPath(input, opts.output, ".svg")
	if err := svg.WriteFile(out, doc); err != nil {
		return err
	}

	printSuccess("Converted %s", input)
	printFile(out)
	printStats(len(doc.Features), len(warnings), hit)
	printNextStep("Next", fmt.Sprintf("%s smooth %s", appName, out))
	return nil
}
