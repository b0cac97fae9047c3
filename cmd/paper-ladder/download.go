package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/pdf"
)

var downloadCmd = &cobra.Command{
	Use:   "download <identifier-or-url>",
	Short: "Download a paper's open access PDF",
	Long: `Download resolves a paper by DOI or source-native identifier, follows
its open access PDF link, and writes the file into the configured papers
directory. A direct PDF URL skips the lookup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		target := args[0]
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = a.cfg.PDF.Dir
		}

		downloader := pdf.NewDownloader(pdf.Config{
			Timeout: a.cfg.PDF.Timeout,
			MaxSize: a.cfg.PDF.MaxSizeBytes,
		})

		var paper *domain.Paper
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			paper = &domain.Paper{Title: target, PDFURL: target}
		} else {
			sources, _ := cmd.Flags().GetStringSlice("sources")
			// Merged lookup gives the best chance of finding a PDF link.
			paper, err = a.agg.GetPaperMerged(cmd.Context(), target, sources)
			if err != nil {
				return err
			}
			if paper == nil {
				return fmt.Errorf("no source knows %q", target)
			}
			if paper.PDFURL == "" {
				return fmt.Errorf("no open access PDF link for %q", paper.Title)
			}
		}

		path, err := downloader.DownloadPaper(cmd.Context(), paper, dir)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("dir", "", "output directory (default from config)")
	downloadCmd.Flags().StringSlice("sources", nil, "sources to query (default: all enabled)")

	rootCmd.AddCommand(downloadCmd)
}
