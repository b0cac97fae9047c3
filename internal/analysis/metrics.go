package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// Ranking methods accepted by RankPapers.
const (
	MethodPageRank      = "pagerank"
	MethodInDegree      = "in_degree"
	MethodOutDegree     = "out_degree"
	MethodBetweenness   = "betweenness"
	MethodHContribution = "h_contribution"
)

// PageRank iteration parameters.
const (
	pageRankDamping   = 0.85
	pageRankMaxIters  = 100
	pageRankTolerance = 1e-6
)

// Score is one ranked paper.
type Score struct {
	ID     string
	Title  string
	Score  float64
	Year   int
	DOI    string
	Metric string
}

// RankPapers scores every node with the named method and returns them in
// descending score order, cut to topK when topK is positive.
func RankPapers(g *Graph, method string, topK int) ([]Score, error) {
	var scores map[string]float64
	switch method {
	case MethodPageRank:
		scores = PageRank(g)
	case MethodInDegree:
		scores = InDegreeCentrality(g)
	case MethodOutDegree:
		scores = OutDegreeCentrality(g)
	case MethodBetweenness:
		scores = BetweennessCentrality(g)
	case MethodHContribution:
		scores = HIndexContribution(g)
	default:
		return nil, fmt.Errorf("%w: unknown ranking method %q", domain.ErrInvalidInput, method)
	}

	ranked := make([]Score, 0, len(scores))
	for id, score := range scores {
		node, ok := g.Nodes[id]
		if !ok {
			continue
		}
		ranked = append(ranked, Score{
			ID:     id,
			Title:  node.Title,
			Score:  score,
			Year:   node.Year,
			DOI:    node.DOI,
			Metric: method,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// PageRank scores nodes by the citation structure: being cited by
// well-cited papers counts more than raw citation tallies.
func PageRank(g *Graph) map[string]float64 {
	n := len(g.Nodes)
	if n == 0 {
		return map[string]float64{}
	}

	scores := make(map[string]float64, n)
	for id := range g.Nodes {
		scores[id] = 1.0 / float64(n)
	}

	inLinks := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, edge := range g.Edges {
		inLinks[edge.CitedID] = append(inLinks[edge.CitedID], edge.CitingID)
		outDegree[edge.CitingID]++
	}

	for iter := 0; iter < pageRankMaxIters; iter++ {
		next := make(map[string]float64, n)
		diff := 0.0
		for id := range g.Nodes {
			rankSum := 0.0
			for _, citing := range inLinks[id] {
				if outDegree[citing] > 0 {
					rankSum += scores[citing] / float64(outDegree[citing])
				}
			}
			score := (1-pageRankDamping)/float64(n) + pageRankDamping*rankSum
			next[id] = score
			diff += math.Abs(score - scores[id])
		}
		scores = next
		if diff < pageRankTolerance {
			break
		}
	}
	return scores
}

// InDegreeCentrality normalizes each node's in-network citation count by
// the maximum possible in-degree.
func InDegreeCentrality(g *Graph) map[string]float64 {
	return degreeCentrality(g, g.InDegree)
}

// OutDegreeCentrality normalizes each node's in-network reference count
// by the maximum possible out-degree.
func OutDegreeCentrality(g *Graph) map[string]float64 {
	return degreeCentrality(g, g.OutDegree)
}

func degreeCentrality(g *Graph, degree func(string) int) map[string]float64 {
	n := len(g.Nodes)
	scores := make(map[string]float64, n)
	if n <= 1 {
		for id := range g.Nodes {
			scores[id] = 0
		}
		return scores
	}
	for id := range g.Nodes {
		scores[id] = float64(degree(id)) / float64(n-1)
	}
	return scores
}

// BetweennessCentrality scores how often a node sits on shortest paths
// between other nodes. High betweenness marks bridge papers connecting
// research areas. Brandes' accumulation over BFS shortest paths.
func BetweennessCentrality(g *Graph) map[string]float64 {
	nodes := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	n := len(nodes)
	betweenness := make(map[string]float64, n)
	for _, id := range nodes {
		betweenness[id] = 0
	}
	if n <= 2 {
		return betweenness
	}

	adj := make(map[string][]string)
	for _, edge := range g.Edges {
		adj[edge.CitingID] = append(adj[edge.CitingID], edge.CitedID)
	}

	for _, s := range nodes {
		var stack []string
		pred := make(map[string][]string, n)
		sigma := make(map[string]float64, n)
		dist := make(map[string]int, n)
		for _, id := range nodes {
			dist[id] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make(map[string]float64, n)
		for len(stack) > 0 {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, v := range pred[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	scale := 1.0 / float64((n-1)*(n-2))
	for id := range betweenness {
		betweenness[id] *= scale
	}
	return betweenness
}

// HIndexContribution scores each node by whether it belongs to the
// network's h-index core. Core papers score 1.0; the rest score by how
// close their in-network citation count comes to the core threshold.
func HIndexContribution(g *Graph) map[string]float64 {
	type counted struct {
		id     string
		degree int
	}
	counts := make([]counted, 0, len(g.Nodes))
	for id := range g.Nodes {
		counts = append(counts, counted{id: id, degree: g.InDegree(id)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].degree != counts[j].degree {
			return counts[i].degree > counts[j].degree
		}
		return counts[i].id < counts[j].id
	})

	hIndex := 0
	for i, c := range counts {
		if c.degree >= i+1 {
			hIndex = i + 1
		} else {
			break
		}
	}

	scores := make(map[string]float64, len(counts))
	for i, c := range counts {
		switch {
		case i < hIndex:
			scores[c.id] = 1.0
		case c.degree > 0:
			scores[c.id] = math.Min(float64(c.degree)/float64(hIndex+1), 0.9)
		default:
			scores[c.id] = 0
		}
	}
	return scores
}

// BurstScore is one paper's citation-burst score.
type BurstScore struct {
	Paper *domain.Paper
	Score float64
}

// CitationBurst ranks papers by recent citation velocity. Papers inside
// the window get their per-year citation rate weighted up by recency;
// older papers decay. A zero currentYear uses the newest year present.
func CitationBurst(papers []*domain.Paper, windowYears, currentYear int) []BurstScore {
	if len(papers) == 0 {
		return nil
	}
	if windowYears <= 0 {
		windowYears = 3
	}
	if currentYear == 0 {
		for _, paper := range papers {
			if paper.Year > currentYear {
				currentYear = paper.Year
			}
		}
		if currentYear == 0 {
			currentYear = time.Now().Year()
		}
	}

	scores := make([]BurstScore, 0, len(papers))
	for _, paper := range papers {
		score := BurstScore{Paper: paper}
		switch age := currentYear - paper.Year; {
		case paper.Year == 0 || paper.CitationCount == 0:
			// No signal.
		case age <= 0:
			score.Score = float64(paper.CitationCount)
		case age <= windowYears:
			velocity := float64(paper.CitationCount) / float64(age)
			recency := 1.0 + float64(windowYears-age)/float64(windowYears)
			score.Score = velocity * recency
		default:
			velocity := float64(paper.CitationCount) / float64(age)
			decay := float64(windowYears) / float64(age)
			score.Score = velocity * decay
		}
		scores = append(scores, score)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
