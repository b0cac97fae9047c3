package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SteadfastAsArt/paper-ladder/internal/aggregator"
	"github.com/SteadfastAsArt/paper-ladder/internal/config"
	"github.com/SteadfastAsArt/paper-ladder/internal/observability"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/arxiv"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/biorxiv"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/core"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/crossref"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/dblp"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/doaj"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/europepmc"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/openalex"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/pubmed"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/scopus"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources/semanticscholar"
)

// app bundles the wired components every command needs.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *papersources.Registry
	agg      *aggregator.Aggregator
	metrics  *observability.Metrics

	// citations is the Semantic Scholar client, kept concrete because it
	// is the one source that can list citations and references.
	citations *semanticscholar.Client
}

// newApp loads configuration and wires the source registry and aggregator.
// metrics is left nil; serve attaches one bound to its Prometheus registry.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	registry, s2, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		agg:       aggregator.New(registry, logger, nil),
		citations: s2,
	}, nil
}

// buildRegistry constructs every source adapter from configuration and
// registers it. Disabled sources register too so they show up in listings.
func buildRegistry(cfg *config.Config) (*papersources.Registry, *semanticscholar.Client, error) {
	registry := papersources.NewRegistry()

	oa, err := openalex.New(openalex.Config{
		BaseURL:   cfg.Sources.OpenAlex.BaseURL,
		Email:     cfg.Sources.OpenAlex.Email,
		Timeout:   cfg.Sources.OpenAlex.Timeout,
		RateLimit: cfg.Sources.OpenAlex.RateLimit,
		Enabled:   cfg.Sources.OpenAlex.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("openalex: %w", err)
	}
	registry.Register(oa)

	s2, err := semanticscholar.New(semanticscholar.Config{
		BaseURL:   cfg.Sources.SemanticScholar.BaseURL,
		APIKey:    cfg.Sources.SemanticScholar.APIKey,
		Timeout:   cfg.Sources.SemanticScholar.Timeout,
		RateLimit: cfg.Sources.SemanticScholar.RateLimit,
		Enabled:   cfg.Sources.SemanticScholar.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("semanticscholar: %w", err)
	}
	registry.Register(s2)

	cr, err := crossref.New(crossref.Config{
		BaseURL:   cfg.Sources.Crossref.BaseURL,
		Email:     cfg.Sources.Crossref.Email,
		Timeout:   cfg.Sources.Crossref.Timeout,
		RateLimit: cfg.Sources.Crossref.RateLimit,
		Enabled:   cfg.Sources.Crossref.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("crossref: %w", err)
	}
	registry.Register(cr)

	ax, err := arxiv.New(arxiv.Config{
		BaseURL:   cfg.Sources.ArXiv.BaseURL,
		Timeout:   cfg.Sources.ArXiv.Timeout,
		RateLimit: cfg.Sources.ArXiv.RateLimit,
		Enabled:   cfg.Sources.ArXiv.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("arxiv: %w", err)
	}
	registry.Register(ax)

	pm, err := pubmed.New(pubmed.Config{
		BaseURL:   cfg.Sources.PubMed.BaseURL,
		APIKey:    cfg.Sources.PubMed.APIKey,
		Timeout:   cfg.Sources.PubMed.Timeout,
		RateLimit: cfg.Sources.PubMed.RateLimit,
		Enabled:   cfg.Sources.PubMed.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pubmed: %w", err)
	}
	registry.Register(pm)

	db, err := dblp.New(dblp.Config{
		BaseURL:   cfg.Sources.DBLP.BaseURL,
		Timeout:   cfg.Sources.DBLP.Timeout,
		RateLimit: cfg.Sources.DBLP.RateLimit,
		Enabled:   cfg.Sources.DBLP.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dblp: %w", err)
	}
	registry.Register(db)

	dj, err := doaj.New(doaj.Config{
		BaseURL:   cfg.Sources.DOAJ.BaseURL,
		Timeout:   cfg.Sources.DOAJ.Timeout,
		RateLimit: cfg.Sources.DOAJ.RateLimit,
		Enabled:   cfg.Sources.DOAJ.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("doaj: %w", err)
	}
	registry.Register(dj)

	co, err := core.New(core.Config{
		BaseURL:   cfg.Sources.Core.BaseURL,
		APIKey:    cfg.Sources.Core.APIKey,
		Timeout:   cfg.Sources.Core.Timeout,
		RateLimit: cfg.Sources.Core.RateLimit,
		Enabled:   cfg.Sources.Core.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("core: %w", err)
	}
	registry.Register(co)

	ep, err := europepmc.New(europepmc.Config{
		BaseURL:   cfg.Sources.EuropePMC.BaseURL,
		Email:     cfg.Sources.EuropePMC.Email,
		Timeout:   cfg.Sources.EuropePMC.Timeout,
		RateLimit: cfg.Sources.EuropePMC.RateLimit,
		Enabled:   cfg.Sources.EuropePMC.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("europepmc: %w", err)
	}
	registry.Register(ep)

	bx, err := biorxiv.New(biorxiv.Config{
		BaseURL:   cfg.Sources.BioRxiv.BaseURL,
		Server:    biorxiv.ServerBioRxiv,
		Timeout:   cfg.Sources.BioRxiv.Timeout,
		RateLimit: cfg.Sources.BioRxiv.RateLimit,
		Enabled:   cfg.Sources.BioRxiv.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("biorxiv: %w", err)
	}
	registry.Register(bx)

	mx, err := biorxiv.New(biorxiv.Config{
		BaseURL:   cfg.Sources.MedRxiv.BaseURL,
		Server:    biorxiv.ServerMedRxiv,
		Timeout:   cfg.Sources.MedRxiv.Timeout,
		RateLimit: cfg.Sources.MedRxiv.RateLimit,
		Enabled:   cfg.Sources.MedRxiv.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("medrxiv: %w", err)
	}
	registry.Register(mx)

	sc, err := scopus.New(scopus.Config{
		BaseURL:   cfg.Sources.Scopus.BaseURL,
		APIKey:    cfg.Sources.Scopus.APIKey,
		Timeout:   cfg.Sources.Scopus.Timeout,
		RateLimit: cfg.Sources.Scopus.RateLimit,
		Enabled:   cfg.Sources.Scopus.Enabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scopus: %w", err)
	}
	registry.Register(sc)

	return registry, s2, nil
}
