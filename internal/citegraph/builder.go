// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citegraph builds bounded citation graphs by breadth-first
// traversal over citing and referenced papers, fanning each hop out
// across the configured providers.
package citegraph

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

// Builder constructs citation graphs over a provider registry.
type Builder struct {
	registry *sources.Registry
	cfg      types.GraphConfig
	logger   *zap.Logger
}

// NewBuilder creates a graph builder. Zero config fields get defaults.
func NewBuilder(registry *sources.Registry, cfg types.GraphConfig, logger *zap.Logger) *Builder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = 100
	}
	if cfg.CitingLimit <= 0 {
		cfg.CitingLimit = 10
	}
	if cfg.ReferencedLimit <= 0 {
		cfg.ReferencedLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{registry: registry, cfg: cfg, logger: logger}
}

// graphState tracks the graph under construction. Node identity uses the
// same keys as search deduplication, so the same paper reached through
// different providers collapses onto one node.
type graphState struct {
	nodes    []types.GraphNode
	edges    []types.GraphEdge
	byKey    map[string]int // identity key → node index
	edgeSeen map[types.GraphEdge]bool
}

func newGraphState() *graphState {
	return &graphState{
		byKey:    make(map[string]int),
		edgeSeen: make(map[types.GraphEdge]bool),
	}
}

// find returns the index of the node matching any identity key of p.
func (g *graphState) find(p types.SearchPaper) (int, bool) {
	for _, k := range p.DedupKeys() {
		if i, ok := g.byKey[k]; ok {
			return i, true
		}
	}
	return -1, false
}

// add appends a node for p and registers its identity keys.
func (g *graphState) add(p types.SearchPaper, depth int, seed bool) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, newNode(p, depth, seed))
	for _, k := range p.DedupKeys() {
		if _, ok := g.byKey[k]; !ok {
			g.byKey[k] = idx
		}
	}
	return idx
}

// addEdge records a directed cites relation, skipping duplicates and
// self-loops.
func (g *graphState) addEdge(source, target string) {
	if source == target {
		return
	}
	e := types.GraphEdge{Source: source, Target: target}
	if g.edgeSeen[e] {
		return
	}
	g.edgeSeen[e] = true
	g.edges = append(g.edges, e)
}

// BuildGraph traverses breadth-first from the seed paper. Nodes below
// MaxDepth have their citing and referenced papers fetched concurrently;
// discovered papers matching an existing node only gain an edge, new
// papers become nodes and join the frontier. Traversal halts once
// MaxNodes is reached.
func (b *Builder) BuildGraph(ctx context.Context, seed types.SearchPaper) (*types.CitationGraph, error) {
	if seed.Title == "" && seed.ExternalID == "" {
		return nil, fmt.Errorf("seed paper has no identity")
	}
	if seed.ID == "" {
		seed.ID = string(seed.Source) + ":" + seed.ExternalID
	}

	g := newGraphState()
	g.add(seed, 0, true)
	queue := []int{0}

	for len(queue) > 0 && len(g.nodes) < b.cfg.MaxNodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := queue[0]
		queue = queue[1:]
		node := &g.nodes[idx]
		if node.Depth >= b.cfg.MaxDepth {
			continue
		}

		citing, referenced := b.fetchNeighbors(ctx, node.Paper)
		node.Expanded = true

		queue = append(queue, b.merge(g, idx, citing, referenced)...)
	}

	graph := &types.CitationGraph{
		SeedID: g.nodes[0].ID,
		Nodes:  g.nodes,
		Edges:  g.edges,
	}
	graph.Clusters = clusterByYear(graph.Nodes)
	graph.Stats = computeStats(graph)

	b.logger.Info("citation graph built",
		zap.String("seed", graph.SeedID),
		zap.Int("nodes", graph.Stats.NodeCount),
		zap.Int("edges", graph.Stats.EdgeCount),
		zap.Int("max_depth", graph.Stats.MaxDepth))
	return graph, nil
}

// ExpandNode performs a single one-hop fetch for an already-built node
// and merges the results into the graph without re-traversing.
func (b *Builder) ExpandNode(ctx context.Context, graph *types.CitationGraph, nodeID string) error {
	g := newGraphState()
	g.nodes = graph.Nodes
	g.edges = graph.Edges
	for i, n := range g.nodes {
		for _, k := range n.Paper.DedupKeys() {
			if _, ok := g.byKey[k]; !ok {
				g.byKey[k] = i
			}
		}
	}
	for _, e := range g.edges {
		g.edgeSeen[e] = true
	}

	idx := -1
	for i := range g.nodes {
		if g.nodes[i].ID == nodeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("node %q not in graph", nodeID)
	}

	citing, referenced := b.fetchNeighbors(ctx, g.nodes[idx].Paper)
	g.nodes[idx].Expanded = true
	b.merge(g, idx, citing, referenced)

	graph.Nodes = g.nodes
	graph.Edges = g.edges
	graph.Clusters = clusterByYear(graph.Nodes)
	graph.Stats = computeStats(graph)
	return nil
}

// merge folds one hop of neighbors into the graph: citing papers point at
// the node, the node points at referenced papers. Returns the indexes of
// newly created nodes for the traversal frontier.
func (b *Builder) merge(g *graphState, idx int, citing, referenced []types.SearchPaper) []int {
	node := g.nodes[idx]
	var frontier []int

	place := func(p types.SearchPaper) (string, bool) {
		if i, ok := g.find(p); ok {
			return g.nodes[i].ID, true
		}
		if len(g.nodes) >= b.cfg.MaxNodes {
			return "", false
		}
		if p.ID == "" {
			p.ID = string(p.Source) + ":" + p.ExternalID
		}
		newIdx := g.add(p, node.Depth+1, false)
		frontier = append(frontier, newIdx)
		return g.nodes[newIdx].ID, true
	}

	for _, p := range citing {
		if id, ok := place(p); ok {
			g.addEdge(id, node.ID)
		}
	}
	for _, p := range referenced {
		if id, ok := place(p); ok {
			g.addEdge(node.ID, id)
		}
	}
	return frontier
}

// fetchNeighbors fetches citing and referenced papers concurrently. Each
// direction walks the providers in fallback order, the paper's own source
// first, accumulating until its limit is met. Provider failures degrade
// the result instead of failing the build.
func (b *Builder) fetchNeighbors(ctx context.Context, paper types.SearchPaper) (citing, referenced []types.SearchPaper) {
	var mu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		papers := b.fetchDirection(grpCtx, paper, b.cfg.CitingLimit, sources.Provider.CitingPapers)
		mu.Lock()
		citing = papers
		mu.Unlock()
		return nil
	})
	grp.Go(func() error {
		papers := b.fetchDirection(grpCtx, paper, b.cfg.ReferencedLimit, sources.Provider.ReferencedPapers)
		mu.Lock()
		referenced = papers
		mu.Unlock()
		return nil
	})
	_ = grp.Wait()
	return citing, referenced
}

// fetchDirection queries providers in fallback order until limit papers
// are collected for one citation direction.
func (b *Builder) fetchDirection(
	ctx context.Context,
	paper types.SearchPaper,
	limit int,
	fetch func(sources.Provider, context.Context, string, int) ([]types.SearchPaper, error),
) []types.SearchPaper {
	var collected []types.SearchPaper
	for _, provider := range b.providerOrder(paper.Source) {
		if len(collected) >= limit {
			break
		}
		externalID := paper.ExternalID
		if provider.Name() != paper.Source {
			// Cross-provider lookup needs a DOI; without one only the
			// originating provider can resolve the paper.
			if paper.DOI == "" {
				continue
			}
			externalID = paper.DOI
		}
		papers, err := fetch(provider, ctx, externalID, limit-len(collected))
		if err != nil {
			b.logger.Debug("neighbor fetch failed",
				zap.String("provider", string(provider.Name())),
				zap.String("paper", paper.ID),
				zap.Error(err))
			continue
		}
		collected = append(collected, papers...)
	}
	if len(collected) > limit {
		collected = collected[:limit]
	}
	return collected
}

// providerOrder returns all providers with the named one first.
func (b *Builder) providerOrder(first types.PaperSource) []sources.Provider {
	all := b.registry.All()
	ordered := make([]sources.Provider, 0, len(all))
	if p, ok := b.registry.Get(first); ok {
		ordered = append(ordered, p)
	}
	for _, p := range all {
		if p.Name() != first {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
