package papersources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

type toggleSource struct {
	fakeSource
	enabled bool
}

func (s *toggleSource) IsEnabled() bool { return s.enabled }

func newToggleSource(name string, enabled bool) *toggleSource {
	return &toggleSource{
		fakeSource: fakeSource{name: name, spec: PageSpec{Kind: PageKindOffset, MaxBatchSize: 10}},
		enabled:    enabled,
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	src := newToggleSource("openalex", true)
	reg.Register(src)

	got, err := reg.Get("openalex")
	require.NoError(t, err)
	assert.Equal(t, "openalex", got.Name())

	_, err = reg.Get("nonexistent")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistryReplacesSameName(t *testing.T) {
	reg := NewRegistry()
	first := newToggleSource("crossref", false)
	second := newToggleSource("crossref", true)
	reg.Register(first)
	reg.Register(second)

	got, err := reg.Get("crossref")
	require.NoError(t, err)
	assert.True(t, got.IsEnabled())
	assert.Len(t, reg.Names(), 1)
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newToggleSource("pubmed", true))
	reg.Register(newToggleSource("arxiv", true))
	reg.Register(newToggleSource("dblp", false))

	assert.Equal(t, []string{"arxiv", "dblp", "pubmed"}, reg.Names())
	assert.Equal(t, []string{"arxiv", "pubmed"}, reg.EnabledNames())
	assert.Len(t, reg.All(), 3)
}
