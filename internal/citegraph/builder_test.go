// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citegraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

// graphProvider serves canned citation links keyed by external ID.
type graphProvider struct {
	name       types.PaperSource
	citing     map[string][]types.SearchPaper
	referenced map[string][]types.SearchPaper
	err        error
}

func (g *graphProvider) Name() types.PaperSource              { return g.name }
func (g *graphProvider) IsAvailable(ctx context.Context) bool { return g.err == nil }

func (g *graphProvider) Search(ctx context.Context, query sources.SearchQuery) (*sources.SearchResponse, error) {
	return &sources.SearchResponse{}, nil
}

func (g *graphProvider) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	return nil, fmt.Errorf("not found")
}

func (g *graphProvider) CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	if g.err != nil {
		return nil, g.err
	}
	return capped(g.citing[externalID], limit), nil
}

func (g *graphProvider) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	if g.err != nil {
		return nil, g.err
	}
	return capped(g.referenced[externalID], limit), nil
}

func capped(papers []types.SearchPaper, limit int) []types.SearchPaper {
	if len(papers) > limit {
		return papers[:limit]
	}
	return papers
}

func paper(source types.PaperSource, id, title string, year int) types.SearchPaper {
	return types.SearchPaper{
		Source:     source,
		ExternalID: id,
		ID:         string(source) + ":" + id,
		Title:      title,
		Year:       year,
		Authors:    []string{"Ada Lovelace"},
	}
}

func seedPaper() types.SearchPaper {
	p := paper(types.SourceSemanticScholar, "seed", "Seed paper on graph traversal", 2020)
	p.DOI = "10.1/seed"
	return p
}

func TestBuildGraphTraversesOneHop(t *testing.T) {
	provider := &graphProvider{
		name: types.SourceSemanticScholar,
		citing: map[string][]types.SearchPaper{
			"seed": {paper(types.SourceSemanticScholar, "c1", "Citing one", 2022)},
		},
		referenced: map[string][]types.SearchPaper{
			"seed": {paper(types.SourceSemanticScholar, "r1", "Referenced one", 2015)},
		},
	}
	b := NewBuilder(sources.NewRegistry(provider), types.GraphConfig{MaxDepth: 1}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)

	assert.Equal(t, "semantic_scholar:seed", graph.SeedID)
	require.Len(t, graph.Nodes, 3)
	assert.True(t, graph.Nodes[0].Seed)
	assert.True(t, graph.Nodes[0].Expanded)

	// Citing paper points at the seed; the seed points at its reference.
	assert.Contains(t, graph.Edges, types.GraphEdge{Source: "semantic_scholar:c1", Target: "semantic_scholar:seed"})
	assert.Contains(t, graph.Edges, types.GraphEdge{Source: "semantic_scholar:seed", Target: "semantic_scholar:r1"})
}

func TestBuildGraphDeduplicatesAcrossProviders(t *testing.T) {
	// Both directions return the same paper under different providers; it
	// must become one node with two edges at most.
	shared := types.SearchPaper{
		Source: types.SourceSemanticScholar, ExternalID: "x",
		ID: "semantic_scholar:x", Title: "Shared neighbor", Year: 2021, DOI: "10.1/x",
	}
	sharedViaPubMed := types.SearchPaper{
		Source: types.SourcePubMed, ExternalID: "999",
		ID: "pubmed:999", Title: "Shared neighbor", Year: 2021, DOI: "10.1/x",
	}
	s2 := &graphProvider{
		name:   types.SourceSemanticScholar,
		citing: map[string][]types.SearchPaper{"seed": {shared}},
	}
	pubmed := &graphProvider{
		name:       types.SourcePubMed,
		referenced: map[string][]types.SearchPaper{"10.1/seed": {sharedViaPubMed}},
	}
	b := NewBuilder(sources.NewRegistry(s2, pubmed), types.GraphConfig{MaxDepth: 1}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 2)
}

func TestBuildGraphRespectsMaxNodes(t *testing.T) {
	var citing []types.SearchPaper
	for i := 0; i < 20; i++ {
		citing = append(citing, paper(types.SourceSemanticScholar, fmt.Sprintf("c%d", i), fmt.Sprintf("Citing %d", i), 2020+i%5))
	}
	provider := &graphProvider{
		name:   types.SourceSemanticScholar,
		citing: map[string][]types.SearchPaper{"seed": citing},
	}
	b := NewBuilder(sources.NewRegistry(provider), types.GraphConfig{
		MaxDepth: 3, MaxNodes: 5, CitingLimit: 20,
	}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 5)
	assert.Equal(t, 5, graph.Stats.NodeCount)
}

func TestBuildGraphProviderFallback(t *testing.T) {
	// The originating provider fails; the DOI lookup on the fallback
	// provider still fills the direction.
	broken := &graphProvider{name: types.SourceSemanticScholar, err: fmt.Errorf("rate limited")}
	fallback := &graphProvider{
		name: types.SourceEuropePMC,
		citing: map[string][]types.SearchPaper{
			"10.1/seed": {paper(types.SourceEuropePMC, "E1", "Fallback citing", 2023)},
		},
	}
	b := NewBuilder(sources.NewRegistry(broken, fallback), types.GraphConfig{MaxDepth: 1}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 2)
}

func TestBuildGraphDepthLimit(t *testing.T) {
	provider := &graphProvider{
		name: types.SourceSemanticScholar,
		citing: map[string][]types.SearchPaper{
			"seed": {paper(types.SourceSemanticScholar, "c1", "Level one", 2021)},
			"c1":   {paper(types.SourceSemanticScholar, "c2", "Level two", 2022)},
			"c2":   {paper(types.SourceSemanticScholar, "c3", "Level three", 2023)},
		},
	}
	b := NewBuilder(sources.NewRegistry(provider), types.GraphConfig{MaxDepth: 2, MaxNodes: 50}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)

	// Depth 2 nodes are created but never expanded.
	assert.Len(t, graph.Nodes, 3)
	assert.Equal(t, 2, graph.Stats.MaxDepth)
}

func TestExpandNodeMergesOneHop(t *testing.T) {
	provider := &graphProvider{
		name: types.SourceSemanticScholar,
		citing: map[string][]types.SearchPaper{
			"seed": {paper(types.SourceSemanticScholar, "c1", "Level one", 2021)},
			"c1":   {paper(types.SourceSemanticScholar, "c2", "Level two", 2022)},
		},
	}
	b := NewBuilder(sources.NewRegistry(provider), types.GraphConfig{MaxDepth: 1, MaxNodes: 50}, zap.NewNop())

	graph, err := b.BuildGraph(context.Background(), seedPaper())
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)

	require.NoError(t, b.ExpandNode(context.Background(), graph, "semantic_scholar:c1"))
	assert.Len(t, graph.Nodes, 3)
	assert.Contains(t, graph.Edges, types.GraphEdge{Source: "semantic_scholar:c2", Target: "semantic_scholar:c1"})

	assert.Error(t, b.ExpandNode(context.Background(), graph, "missing"))
}

func TestBuildGraphRejectsEmptySeed(t *testing.T) {
	b := NewBuilder(sources.NewRegistry(), types.GraphConfig{}, zap.NewNop())
	_, err := b.BuildGraph(context.Background(), types.SearchPaper{})
	require.Error(t, err)
}

func TestClusterByYear(t *testing.T) {
	nodes := []types.GraphNode{
		{ID: "seed", Seed: true, Paper: types.SearchPaper{Year: 2021}},
		{ID: "a", Paper: types.SearchPaper{Year: 2021}},
		{ID: "b", Paper: types.SearchPaper{Year: 2023}},
		{ID: "c", Paper: types.SearchPaper{Year: 2016}},
		{ID: "d", Paper: types.SearchPaper{Year: 0}},
	}

	clusters := clusterByYear(nodes)
	// 2020-2024 has two members; 2015-2019 has one and is dropped. The
	// seed and the undated node never cluster.
	require.Len(t, clusters, 1)
	assert.Equal(t, "years-2020", clusters[0].ID)
	// Labels are plain ASCII.
	assert.Equal(t, "2020-2024", clusters[0].Label)
	assert.ElementsMatch(t, []string{"a", "b"}, clusters[0].NodeIDs)
}

func TestComputeStats(t *testing.T) {
	ten := 10
	thirty := 30
	graph := &types.CitationGraph{
		Nodes: []types.GraphNode{
			{Depth: 0, Paper: types.SearchPaper{Year: 2018, CitationCount: &thirty}},
			{Depth: 1, Paper: types.SearchPaper{Year: 2022, CitationCount: &ten}},
			{Depth: 2, Paper: types.SearchPaper{Year: 0}},
		},
		Edges: []types.GraphEdge{{Source: "a", Target: "b"}},
	}

	stats := computeStats(graph)
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 2018, stats.YearMin)
	assert.Equal(t, 2022, stats.YearMax)
	assert.Equal(t, 20.0, stats.MeanCitations)
}

func TestNodeLabel(t *testing.T) {
	withAuthor := types.SearchPaper{Authors: []string{"Grace Hopper"}, Year: 1952, Title: "Compilers"}
	assert.Equal(t, "Hopper (1952)", nodeLabel(withAuthor))

	long := types.SearchPaper{Title: "A very long title that keeps going well past thirty characters"}
	assert.Len(t, nodeLabel(long), 30)
}
