package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SteadfastAsArt/paper-ladder/internal/aggregator"
	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search academic sources for papers",
	Long: `Search queries every enabled source (or the sources named with
--sources) concurrently and prints one deduplicated result list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		flags := cmd.Flags()

		limit, _ := flags.GetInt("limit")
		sources, _ := flags.GetStringSlice("sources")
		openAccess, _ := flags.GetBool("open-access")
		minCitations, _ := flags.GetInt("min-citations")
		autoPaginate, _ := flags.GetBool("auto-paginate")
		asJSON, _ := flags.GetBool("json")

		params := papersources.SearchParams{
			OpenAccessOnly: openAccess,
			MinCitations:   minCitations,
		}
		if raw, _ := flags.GetString("from"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
			}
			params.DateFrom = &t
		}
		if raw, _ := flags.GetString("to"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
			}
			params.DateTo = &t
		}

		if limit <= 0 {
			limit = a.cfg.Search.DefaultLimit
		}
		if limit > a.cfg.Search.MaxLimit {
			limit = a.cfg.Search.MaxLimit
		}

		result, err := a.agg.Search(cmd.Context(), aggregator.SearchRequest{
			Query:        query,
			Sources:      sources,
			Limit:        limit,
			AutoPaginate: autoPaginate,
			Timeout:      a.cfg.Search.SourceTimeout,
			Params:       params,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		printSearchResult(result)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of merged results (default from config)")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (default: all enabled)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Bool("open-access", false, "only return open access papers")
	searchCmd.Flags().Int("min-citations", 0, "minimum citation count")
	searchCmd.Flags().Bool("auto-paginate", true, "page through results until the limit is filled")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func printSearchResult(result *domain.SearchResult) {
	for i, paper := range result.Papers {
		fmt.Printf("%2d. %s\n", i+1, paper.Title)
		if len(paper.Authors) > 0 {
			names := paper.AuthorNames()
			if len(names) > 4 {
				names = append(names[:4], "et al.")
			}
			fmt.Printf("    %s\n", strings.Join(names, ", "))
		}
		printPaperDetails(paper, "    ")
		fmt.Println()
	}

	fmt.Printf("%d papers from %s", len(result.Papers), strings.Join(result.SourcesQueried, ", "))
	if result.TotalResults > len(result.Papers) {
		fmt.Printf(" (~%d total matches)", result.TotalResults)
	}
	fmt.Println()

	for source, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s failed: %s\n", source, msg)
	}
}

func printPaperDetails(paper *domain.Paper, indent string) {
	var details []string
	if paper.Year > 0 {
		details = append(details, fmt.Sprintf("%d", paper.Year))
	}
	if paper.Venue != "" {
		details = append(details, paper.Venue)
	}
	if paper.CitationCount > 0 {
		details = append(details, fmt.Sprintf("%d citations", paper.CitationCount))
	}
	details = append(details, paper.Source)
	fmt.Printf("%s%s\n", indent, strings.Join(details, " | "))

	if paper.DOI != "" {
		fmt.Printf("%sdoi:%s\n", indent, paper.DOI)
	}
	if paper.PDFURL != "" {
		fmt.Printf("%spdf: %s\n", indent, paper.PDFURL)
	} else if paper.URL != "" {
		fmt.Printf("%surl: %s\n", indent, paper.URL)
	}
}
