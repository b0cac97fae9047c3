// Package analysis builds and scores citation networks over canonical
// paper records. A graph holds papers as nodes keyed by DOI (or a title
// key when no DOI is known) and directed citing→cited edges; metrics
// rank the nodes by structural influence.
package analysis

import (
	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// Node is one paper in a citation graph.
type Node struct {
	// ID is the graph key: the normalized DOI, or "title:"-prefixed
	// normalized title when no DOI is known.
	ID string

	// DOI is the normalized DOI, empty when unknown.
	DOI string

	// Title is the paper title.
	Title string

	// Year is the publication year, 0 when unknown.
	Year int

	// CitationCount is the source-reported global citation count.
	CitationCount int

	// Depth is the traversal distance from the seed paper.
	Depth int

	// Source names the source the record came from.
	Source string
}

// Edge is one directed citation: the citing paper points at the cited
// paper.
type Edge struct {
	CitingID string
	CitedID  string
}

// NodeID derives the graph key for a paper.
func NodeID(paper *domain.Paper) string {
	if paper.DOI != "" {
		return paper.DOI
	}
	return "title:" + domain.NormalizeTitle(paper.Title)
}

// NodeFromPaper builds a node at the given traversal depth.
func NodeFromPaper(paper *domain.Paper, depth int) *Node {
	return &Node{
		ID:            NodeID(paper),
		DOI:           paper.DOI,
		Title:         paper.Title,
		Year:          paper.Year,
		CitationCount: paper.CitationCount,
		Depth:         depth,
		Source:        paper.Source,
	}
}

// Graph is a directed citation network.
type Graph struct {
	// Nodes maps node IDs to nodes.
	Nodes map[string]*Node

	// Edges lists the citing→cited relationships.
	Edges []Edge

	// SeedID is the node the network was grown from.
	SeedID string

	edgeSet map[Edge]bool
}

// NewGraph creates an empty graph rooted at the given seed node ID.
func NewGraph(seedID string) *Graph {
	return &Graph{
		Nodes:   make(map[string]*Node),
		SeedID:  seedID,
		edgeSet: make(map[Edge]bool),
	}
}

// AddNode inserts a node; the first record for an ID wins.
func (g *Graph) AddNode(node *Node) {
	if _, ok := g.Nodes[node.ID]; !ok {
		g.Nodes[node.ID] = node
	}
}

// AddEdge inserts an edge, ignoring duplicates.
func (g *Graph) AddEdge(edge Edge) {
	if g.edgeSet[edge] {
		return
	}
	g.edgeSet[edge] = true
	g.Edges = append(g.Edges, edge)
}

// CitingPapers returns the nodes that cite the given paper.
func (g *Graph) CitingPapers(id string) []*Node {
	var nodes []*Node
	for _, edge := range g.Edges {
		if edge.CitedID != id {
			continue
		}
		if node, ok := g.Nodes[edge.CitingID]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// CitedPapers returns the nodes the given paper cites.
func (g *Graph) CitedPapers(id string) []*Node {
	var nodes []*Node
	for _, edge := range g.Edges {
		if edge.CitingID != id {
			continue
		}
		if node, ok := g.Nodes[edge.CitedID]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// InDegree counts citations of the given paper inside the network.
func (g *Graph) InDegree(id string) int {
	n := 0
	for _, edge := range g.Edges {
		if edge.CitedID == id {
			n++
		}
	}
	return n
}

// OutDegree counts references of the given paper inside the network.
func (g *Graph) OutDegree(id string) int {
	n := 0
	for _, edge := range g.Edges {
		if edge.CitingID == id {
			n++
		}
	}
	return n
}
