// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/citegraph"
	"github.com/pdiddy/litreview/internal/metrics"
	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph <paper-id>",
	Short: "Build a citation graph around a seed paper",
	Long: `Graph looks up a seed paper and explores its citation neighborhood
breadth-first: papers citing the seed and papers it references, out to the
configured depth. Papers found through different databases are merged. The
graph is written as JSON with layout hints (node size, depth colors, year
clusters).

The paper ID is provider-native: a PMID for pubmed, an arXiv ID for arxiv,
a DOI for crossref, and so on.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().String("provider", "crossref", "provider to resolve the seed paper against")
	graphCmd.Flags().Int("depth", 0, "traversal depth from the seed (default 2)")
	graphCmd.Flags().Int("max-nodes", 0, "total node cap (default 100)")
	graphCmd.Flags().String("output", "", "write the graph to a file instead of stdout")

	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	paperID := args[0]
	providerName, _ := cmd.Flags().GetString("provider")
	depth, _ := cmd.Flags().GetInt("depth")
	maxNodes, _ := cmd.Flags().GetInt("max-nodes")
	output, _ := cmd.Flags().GetString("output")

	source, err := parseSource(providerName)
	if err != nil {
		return err
	}

	cfg := engineConfig()
	if depth > 0 {
		cfg.Graph.MaxDepth = depth
	}
	if maxNodes > 0 {
		cfg.Graph.MaxNodes = maxNodes
	}

	registry := sources.DefaultRegistry(cfg, metrics.NewCollector("litreview", nil))
	provider, ok := registry.Get(source)
	if !ok {
		return fmt.Errorf("provider %q not configured", source)
	}

	ctx := cmd.Context()
	seed, err := provider.PaperDetails(ctx, paperID)
	if err != nil {
		return fmt.Errorf("resolving seed paper: %w", err)
	}

	builder := citegraph.NewBuilder(registry, cfg.Graph, zap.NewNop())
	graph, err := builder.BuildGraph(ctx, *seed)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Graph: %d nodes, %d edges, depth %d\n",
		graph.Stats.NodeCount, graph.Stats.EdgeCount, graph.Stats.MaxDepth)

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeGraphJSON(out, graph)
}

func writeGraphJSON(w io.Writer, graph *types.CitationGraph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(graph)
}
