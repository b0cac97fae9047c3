package analysis

import (
	"context"
	"fmt"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/rs/zerolog"
)

// Traversal directions accepted by the Builder.
const (
	DirectionCitations  = "citations"
	DirectionReferences = "references"
	DirectionBoth       = "both"
)

// Builder defaults.
const (
	DefaultMaxDepth     = 2
	DefaultMaxPerLevel  = 20
	DefaultMaxTotalSize = 500
)

// CitationLister lists the papers citing and cited by a given paper.
// The Semantic Scholar client satisfies it.
type CitationLister interface {
	Citations(ctx context.Context, id string, limit int) ([]*domain.Paper, error)
	References(ctx context.Context, id string, limit int) ([]*domain.Paper, error)
}

// Builder expands a seed paper into a citation network by breadth-first
// traversal of a CitationLister.
type Builder struct {
	lister      CitationLister
	maxDepth    int
	maxPerLevel int
	maxTotal    int
	direction   string
	logger      zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxDepth caps how many hops the traversal takes from the seed.
func WithMaxDepth(depth int) BuilderOption {
	return func(b *Builder) { b.maxDepth = depth }
}

// WithMaxPerLevel caps how many neighbors are fetched per paper.
func WithMaxPerLevel(limit int) BuilderOption {
	return func(b *Builder) { b.maxPerLevel = limit }
}

// WithMaxTotal caps the node count of the whole graph.
func WithMaxTotal(limit int) BuilderOption {
	return func(b *Builder) { b.maxTotal = limit }
}

// WithDirection selects which edges to follow. One of DirectionCitations,
// DirectionReferences, or DirectionBoth.
func WithDirection(direction string) BuilderOption {
	return func(b *Builder) { b.direction = direction }
}

// WithLogger attaches a logger to the traversal.
func WithLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder returns a Builder over the given lister.
func NewBuilder(lister CitationLister, opts ...BuilderOption) (*Builder, error) {
	b := &Builder{
		lister:      lister,
		maxDepth:    DefaultMaxDepth,
		maxPerLevel: DefaultMaxPerLevel,
		maxTotal:    DefaultMaxTotalSize,
		direction:   DirectionBoth,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	switch b.direction {
	case DirectionCitations, DirectionReferences, DirectionBoth:
	default:
		return nil, fmt.Errorf("%w: unknown traversal direction %q", domain.ErrInvalidInput, b.direction)
	}
	if b.maxDepth < 1 {
		return nil, fmt.Errorf("%w: max depth must be at least 1", domain.ErrInvalidInput)
	}
	return b, nil
}

// Build expands seed into a citation graph. Lookup failures on
// individual neighbors are logged and skipped so one dead identifier
// does not sink the whole network.
func (b *Builder) Build(ctx context.Context, seed *domain.Paper) (*Graph, error) {
	if seed == nil || (seed.Title == "" && seed.DOI == "") {
		return nil, fmt.Errorf("%w: seed paper has no identifier", domain.ErrInvalidInput)
	}

	graph := NewGraph(NodeID(seed))
	graph.AddNode(NodeFromPaper(seed, 0))

	frontier := []*domain.Paper{seed}
	for depth := 1; depth <= b.maxDepth && len(frontier) > 0; depth++ {
		var next []*domain.Paper
		for _, paper := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if len(graph.Nodes) >= b.maxTotal {
				b.logger.Debug().Int("nodes", len(graph.Nodes)).Msg("citation network reached size cap")
				return graph, nil
			}
			if paper.DOI == "" {
				// Neighbors without a DOI stay as leaf nodes; the
				// lister cannot expand them.
				continue
			}

			if b.direction == DirectionCitations || b.direction == DirectionBoth {
				citing, err := b.lister.Citations(ctx, paper.DOI, b.maxPerLevel)
				if err != nil {
					b.logger.Warn().Err(err).Str("doi", paper.DOI).Msg("listing citations failed")
				} else {
					next = append(next, b.attach(graph, paper, citing, depth, true)...)
				}
			}
			if b.direction == DirectionReferences || b.direction == DirectionBoth {
				cited, err := b.lister.References(ctx, paper.DOI, b.maxPerLevel)
				if err != nil {
					b.logger.Warn().Err(err).Str("doi", paper.DOI).Msg("listing references failed")
				} else {
					next = append(next, b.attach(graph, paper, cited, depth, false)...)
				}
			}
		}
		frontier = next
	}
	return graph, nil
}

// attach adds neighbors of paper to the graph at the given depth and
// returns the ones that were new, for the next frontier.
func (b *Builder) attach(graph *Graph, paper *domain.Paper, neighbors []*domain.Paper, depth int, citing bool) []*domain.Paper {
	paperID := NodeID(paper)
	var added []*domain.Paper
	for _, neighbor := range neighbors {
		if neighbor == nil || (neighbor.Title == "" && neighbor.DOI == "") {
			continue
		}
		if len(graph.Nodes) >= b.maxTotal {
			break
		}
		id := NodeID(neighbor)
		_, seen := graph.Nodes[id]
		graph.AddNode(NodeFromPaper(neighbor, depth))
		if citing {
			graph.AddEdge(Edge{CitingID: id, CitedID: paperID})
		} else {
			graph.AddEdge(Edge{CitingID: paperID, CitedID: id})
		}
		if !seen {
			added = append(added, neighbor)
		}
	}
	return added
}
