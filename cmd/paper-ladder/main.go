// Package main is the entry point for the paper-ladder CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the paper-ladder CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-ladder",
	Short: "Search academic paper databases through one interface",
	Long: `paper-ladder aggregates academic metadata from OpenAlex, Crossref,
Semantic Scholar, arXiv, PubMed, dblp, DOAJ, CORE, Europe PMC, bioRxiv,
medRxiv, and Scopus.

Searches fan out to every enabled source concurrently; results are
deduplicated by DOI and title and merged into one ranked list. Sources
that need API keys (CORE, Scopus) stay disabled until the matching
PAPERLADDER_SOURCES_*_API_KEY environment variable is set.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
