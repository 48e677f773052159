// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/metrics"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

// recencyWindowYears is the window for the --recency-bias boost.
const recencyWindowYears = 5

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search academic databases for papers",
	Long: `Search queries academic databases (PubMed, arXiv, Semantic Scholar,
CrossRef, Europe PMC) for papers matching a query. Results are deduplicated
across sources and ranked by relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("providers", []string{"pubmed", "semantic_scholar", "crossref"}, "providers to query")
	searchCmd.Flags().Int("year-from", 0, "only include papers published in or after this year")
	searchCmd.Flags().Int("max-results", 20, "maximum results per provider")
	searchCmd.Flags().Bool("open-access", false, "only include openly readable papers")
	searchCmd.Flags().String("format", "table", "output format: table, json, csl")
	searchCmd.Flags().Bool("recency-bias", false, "boost recently published papers")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	providerNames, _ := cmd.Flags().GetStringSlice("providers")
	yearFrom, _ := cmd.Flags().GetInt("year-from")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	openAccess, _ := cmd.Flags().GetBool("open-access")
	format, _ := cmd.Flags().GetString("format")
	recencyBias, _ := cmd.Flags().GetBool("recency-bias")

	var queries []types.SearchQueryPlan
	for i, name := range providerNames {
		source, err := parseSource(name)
		if err != nil {
			return err
		}
		queries = append(queries, types.SearchQueryPlan{
			Provider: source,
			Query:    query,
			Priority: i + 1,
		})
	}

	req := search.Request{
		Queries:        queries,
		OpenAccessOnly: openAccess,
		MaxResults:     maxResults,
	}
	if yearFrom > 0 {
		req.DateFrom = time.Date(yearFrom, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	cfg := engineConfig()
	svc := search.New(sources.DefaultRegistry(cfg, metrics.NewCollector("litreview", nil)), cfg.Search)

	res, err := svc.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	if recencyBias {
		search.ApplyRecencyBias(res.Papers, recencyWindowYears)
	}

	switch format {
	case "table":
		search.FormatTable(res, os.Stdout)
		return nil
	case "json":
		return search.FormatJSON(res, os.Stdout)
	case "csl":
		return search.FormatCSL(res, os.Stdout)
	default:
		return fmt.Errorf("unknown format %q (supported: table, json, csl)", format)
	}
}
