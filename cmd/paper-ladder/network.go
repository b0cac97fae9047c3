package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SteadfastAsArt/paper-ladder/internal/analysis"
)

var networkCmd = &cobra.Command{
	Use:   "network <identifier>",
	Short: "Build a citation network around a paper and rank its nodes",
	Long: `Network expands the given paper into a citation graph by following
its citations and references through Semantic Scholar, then scores every
node in the graph with the chosen ranking method. Use --direction to
follow only citations (papers building on the seed) or only references
(the seed's intellectual ancestry).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if !a.citations.IsEnabled() {
			return fmt.Errorf("citation networks need the semanticscholar source enabled")
		}

		depth, _ := cmd.Flags().GetInt("depth")
		perLevel, _ := cmd.Flags().GetInt("per-level")
		maxNodes, _ := cmd.Flags().GetInt("max-nodes")
		direction, _ := cmd.Flags().GetString("direction")
		method, _ := cmd.Flags().GetString("rank-by")
		topK, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")

		seed, err := a.agg.GetPaperMerged(cmd.Context(), args[0], nil)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", args[0], err)
		}
		if seed == nil {
			return fmt.Errorf("no source knows %q", args[0])
		}

		builder, err := analysis.NewBuilder(a.citations,
			analysis.WithMaxDepth(depth),
			analysis.WithMaxPerLevel(perLevel),
			analysis.WithMaxTotal(maxNodes),
			analysis.WithDirection(direction),
			analysis.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}

		graph, err := builder.Build(cmd.Context(), seed)
		if err != nil {
			return fmt.Errorf("building network: %w", err)
		}

		ranked, err := analysis.RankPapers(graph, method, topK)
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Seed   string           `json:"seed"`
				Nodes  int              `json:"nodes"`
				Edges  int              `json:"edges"`
				Ranked []analysis.Score `json:"ranked"`
			}{graph.SeedID, len(graph.Nodes), len(graph.Edges), ranked})
		}

		fmt.Printf("Network around %s: %d papers, %d citation links\n\n",
			graph.SeedID, len(graph.Nodes), len(graph.Edges))
		for i, score := range ranked {
			fmt.Printf("%2d. %-50s %8.4f", i+1, truncateTitle(score.Title, 50), score.Score)
			if score.Year > 0 {
				fmt.Printf("  (%d)", score.Year)
			}
			if score.DOI != "" {
				fmt.Printf("  %s", score.DOI)
			}
			fmt.Println()
		}
		return nil
	},
}

func truncateTitle(title string, max int) string {
	if len(title) <= max {
		return title
	}
	return title[:max-3] + "..."
}

func init() {
	networkCmd.Flags().Int("depth", analysis.DefaultMaxDepth, "traversal hops from the seed paper")
	networkCmd.Flags().Int("per-level", analysis.DefaultMaxPerLevel, "neighbors fetched per paper")
	networkCmd.Flags().Int("max-nodes", analysis.DefaultMaxTotalSize, "cap on network size")
	networkCmd.Flags().String("direction", analysis.DirectionBoth,
		"edges to follow: "+strings.Join([]string{analysis.DirectionCitations, analysis.DirectionReferences, analysis.DirectionBoth}, ", "))
	networkCmd.Flags().String("rank-by", analysis.MethodPageRank,
		"ranking method: "+strings.Join([]string{analysis.MethodPageRank, analysis.MethodInDegree, analysis.MethodOutDegree, analysis.MethodBetweenness, analysis.MethodHContribution}, ", "))
	networkCmd.Flags().Int("top", 20, "show only the top N papers")
	networkCmd.Flags().Bool("json", false, "output the ranking as JSON")

	rootCmd.AddCommand(networkCmd)
}
