// cmd/inspect.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/scribe/internal/selector"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <page.html>",
		Short: "List the selectors a recording would produce for a static page",
		Long: `Parses an HTML file ("-" for stdin) and prints every clickable or editable
element with the selector a click, and where applicable an input, would record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				path, err := homedir.Expand(args[0])
				if err != nil {
					return fmt.Errorf("could not resolve path '%s': %w", args[0], err)
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open page: %w", err)
				}
				defer f.Close()
				src = f
			}

			candidates, err := selector.Inspect(src)
			if err != nil {
				return fmt.Errorf("failed to inspect page: %w", err)
			}
			return writeCandidates(cmd.OutOrStdout(), candidates)
		},
	}
}

func writeCandidates(out io.Writer, candidates []selector.Candidate) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCLICK\tINPUT")
	for _, c := range candidates {
		input := "-"
		if c.Editable {
			input = c.Input
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Element.TagName, c.Click, input)
	}
	return tw.Flush()
}
