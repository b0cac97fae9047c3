package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

var getCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Look up one paper by DOI or source-native ID",
	Long: `Get resolves a single paper by DOI, arXiv ID, PMID, or another
source-native identifier. Sources are tried in order until one answers;
with --merge every source is queried and the hits are combined into the
most complete record.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		identifier := args[0]
		sources, _ := cmd.Flags().GetStringSlice("sources")
		merge, _ := cmd.Flags().GetBool("merge")
		asJSON, _ := cmd.Flags().GetBool("json")

		paper, err := lookupPaper(cmd, a, identifier, sources, merge)
		if err != nil {
			return err
		}
		if paper == nil {
			return fmt.Errorf("no source knows %q", identifier)
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(paper)
		}

		fmt.Println(paper.Title)
		for _, author := range paper.Authors {
			fmt.Printf("  %s\n", author)
		}
		printPaperDetails(paper, "  ")
		if paper.Abstract != "" {
			fmt.Printf("\n%s\n", paper.Abstract)
		}
		return nil
	},
}

func lookupPaper(cmd *cobra.Command, a *app, identifier string, sources []string, merge bool) (*domain.Paper, error) {
	if merge {
		return a.agg.GetPaperMerged(cmd.Context(), identifier, sources)
	}
	return a.agg.GetPaper(cmd.Context(), identifier, sources)
}

func init() {
	getCmd.Flags().StringSlice("sources", nil, "sources to try, in order (default: all enabled)")
	getCmd.Flags().Bool("merge", false, "query all sources and merge the hits")
	getCmd.Flags().Bool("json", false, "output the paper as JSON")

	rootCmd.AddCommand(getCmd)
}
