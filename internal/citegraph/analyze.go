// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citegraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/litreview/pkg/types"
)

// depthColors maps breadth-first depth to a display color, cycling when
// the traversal goes deeper than the palette.
var depthColors = []string{"#2563eb", "#16a34a", "#d97706", "#9333ea", "#dc2626"}

// clusterColors is the palette for publication-year buckets.
var clusterColors = []string{"#93c5fd", "#86efac", "#fcd34d", "#d8b4fe", "#fca5a5", "#a5f3fc"}

// newNode builds a display-ready node for a paper.
func newNode(p types.SearchPaper, depth int, seed bool) types.GraphNode {
	size := 6 + math.Min(14, float64(p.Citations())/50)
	if seed {
		size = 24
	}
	return types.GraphNode{
		ID:    p.ID,
		Paper: p,
		Depth: depth,
		Seed:  seed,
		Size:  size,
		Color: depthColors[depth%len(depthColors)],
		Label: nodeLabel(p),
	}
}

// nodeLabel renders "Lastname (2021)" or falls back to a title prefix.
func nodeLabel(p types.SearchPaper) string {
	if len(p.Authors) > 0 && p.Year > 0 {
		name := p.Authors[0]
		for i := len(name) - 1; i >= 0; i-- {
			if name[i] == ' ' {
				name = name[i+1:]
				break
			}
		}
		return fmt.Sprintf("%s (%d)", name, p.Year)
	}
	if len(p.Title) > 30 {
		return p.Title[:27] + "..."
	}
	return p.Title
}

// clusterByYear groups non-seed nodes into five-year publication buckets.
// Buckets with fewer than two members are dropped; nodes without a year
// are never clustered.
func clusterByYear(nodes []types.GraphNode) []types.GraphCluster {
	buckets := make(map[int][]string)
	for _, n := range nodes {
		if n.Seed || n.Paper.Year <= 0 {
			continue
		}
		start := n.Paper.Year / 5 * 5
		buckets[start] = append(buckets[start], n.ID)
	}

	starts := make([]int, 0, len(buckets))
	for start, ids := range buckets {
		if len(ids) >= 2 {
			starts = append(starts, start)
		}
	}
	sort.Ints(starts)

	clusters := make([]types.GraphCluster, 0, len(starts))
	for i, start := range starts {
		clusters = append(clusters, types.GraphCluster{
			ID:      fmt.Sprintf("years-%d", start),
			Label:   fmt.Sprintf("%d-%d", start, start+4),
			Color:   clusterColors[i%len(clusterColors)],
			NodeIDs: buckets[start],
		})
	}
	return clusters
}

// computeStats summarizes the built graph.
func computeStats(graph *types.CitationGraph) types.GraphStats {
	stats := types.GraphStats{
		NodeCount: len(graph.Nodes),
		EdgeCount: len(graph.Edges),
	}

	citationSum := 0
	cited := 0
	for _, n := range graph.Nodes {
		if n.Depth > stats.MaxDepth {
			stats.MaxDepth = n.Depth
		}
		if y := n.Paper.Year; y > 0 {
			if stats.YearMin == 0 || y < stats.YearMin {
				stats.YearMin = y
			}
			if y > stats.YearMax {
				stats.YearMax = y
			}
		}
		if n.Paper.CitationCount != nil {
			citationSum += *n.Paper.CitationCount
			cited++
		}
	}
	if cited > 0 {
		stats.MeanCitations = float64(citationSum) / float64(cited)
	}
	return stats
}
