package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured paper sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		sources := a.registry.All()
		sort.Slice(sources, func(i, j int) bool {
			return sources[i].Name() < sources[j].Name()
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tENABLED\tPAGINATION\tBATCH MAX\tWINDOW")
		for _, src := range sources {
			spec := src.Pagination()
			window := "-"
			if spec.MaxOffset > 0 {
				window = fmt.Sprintf("%d", spec.MaxOffset)
			}
			fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%s\n",
				src.Name(), src.IsEnabled(), spec.Kind, spec.MaxBatchSize, window)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
