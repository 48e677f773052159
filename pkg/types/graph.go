// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GraphNode wraps a SearchPaper for citation-graph visualization.
type GraphNode struct {
	ID    string      `json:"id" yaml:"id"`
	Paper SearchPaper `json:"paper" yaml:"paper"`

	// Depth is the breadth-first distance from the seed paper.
	Depth int `json:"depth" yaml:"depth"`

	Seed     bool `json:"seed" yaml:"seed"`
	Expanded bool `json:"expanded" yaml:"expanded"`
	Pinned   bool `json:"pinned" yaml:"pinned"`

	Size  float64 `json:"size" yaml:"size"`
	Color string  `json:"color" yaml:"color"`
	Label string  `json:"label" yaml:"label"`
}

// GraphEdge is a directed cites relation between two node IDs.
type GraphEdge struct {
	// Source cites Target.
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// GraphCluster groups node IDs under a label; clusters are five-year
// publication buckets.
type GraphCluster struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Color   string   `json:"color" yaml:"color"`
	NodeIDs []string `json:"node_ids" yaml:"node_ids"`
}

// GraphStats summarizes a built citation graph.
type GraphStats struct {
	NodeCount     int     `json:"node_count" yaml:"node_count"`
	EdgeCount     int     `json:"edge_count" yaml:"edge_count"`
	MaxDepth      int     `json:"max_depth" yaml:"max_depth"`
	YearMin       int     `json:"year_min" yaml:"year_min"`
	YearMax       int     `json:"year_max" yaml:"year_max"`
	MeanCitations float64 `json:"mean_citations" yaml:"mean_citations"`
}

// CitationGraph is a visualization-ready citation graph.
type CitationGraph struct {
	SeedID   string         `json:"seed_id" yaml:"seed_id"`
	Nodes    []GraphNode    `json:"nodes" yaml:"nodes"`
	Edges    []GraphEdge    `json:"edges" yaml:"edges"`
	Clusters []GraphCluster `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Stats    GraphStats     `json:"stats" yaml:"stats"`
}
