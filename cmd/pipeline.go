package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/browser"
	"github.com/austral-labs/enrich-cli/internal/discovery"
	"github.com/austral-labs/enrich-cli/internal/enrich"
	"github.com/austral-labs/enrich-cli/internal/extract"
	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/resilience"
	"github.com/austral-labs/enrich-cli/internal/scorer"
	"github.com/austral-labs/enrich-cli/internal/store"
	"github.com/austral-labs/enrich-cli/pkg/cuit"
	"github.com/austral-labs/enrich-cli/pkg/geocode"
)

// pipelineEnv bundles everything an enrichment run needs. Close releases
// the transport session and the store.
type pipelineEnv struct {
	Store    store.Store
	Session  *browser.Session
	Enricher *enrich.Enricher
}

func (e *pipelineEnv) Close() {
	if e.Session != nil {
		_ = e.Session.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	keywords, err := loadKeywords()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	session, err := browser.NewSession(browser.SessionConfig{
		UserAgent:      cfg.Scrape.UserAgent,
		DefaultTimeout: secs(cfg.Scrape.PageTimeoutSecs),
	})
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init session")
	}

	surfaces, err := buildSurfaces(session)
	if err != nil {
		_ = session.Close()
		_ = st.Close()
		return nil, err
	}

	discoverer := discovery.New(session, surfaces, keywords, discovery.Config{
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		MinDelay:        millis(cfg.Search.MinDelayMs),
		MaxDelay:        millis(cfg.Search.MaxDelayMs),
		SurfaceDelay:    secs(cfg.Search.SurfaceDelaySecs),
		QueryTimeout:    secs(cfg.Search.QueryTimeoutSecs),
		VerifyLiveness:  cfg.Search.VerifyLiveness,
		LivenessTimeout: secs(cfg.Search.LivenessTimeoutSecs),
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: millis(cfg.Retry.BaseDelayMs),
			MaxBackoff:     secs(cfg.Retry.MaxDelaySecs),
		},
	})

	extractor := extract.New(session, keywords, extract.Config{
		PageTimeout:        secs(cfg.Scrape.PageTimeoutSecs),
		ContactPageTimeout: secs(cfg.Scrape.ContactPageTimeoutSecs),
		FollowContactPage:  cfg.Scrape.FollowContactPage,
	})

	var opts []enrich.Option
	if cfg.CUIT.Enabled {
		opts = append(opts, enrich.WithRegistry(cuit.NewClient(
			cuit.WithBaseURL(cfg.CUIT.BaseURL),
			cuit.WithThreshold(cfg.CUIT.SimilarityThreshold),
			cuit.WithHTTPClient(&http.Client{Timeout: secs(cfg.CUIT.TimeoutSecs)}),
		)))
	}
	if cfg.Geocode.Enabled {
		if cfg.Geocode.Key == "" {
			zap.L().Warn("cmd: geocoding enabled but no API key set, skipping")
		} else {
			client := geocode.NewClient(cfg.Geocode.Key,
				geocode.WithRegion(cfg.Geocode.Region, cfg.Geocode.Language),
				geocode.WithHTTPClient(&http.Client{Timeout: secs(cfg.Geocode.TimeoutSecs)}),
			)
			opts = append(opts, enrich.WithGeocoder(&geocoderAdapter{
				client: geocode.NewCachedClient(client, 24*time.Hour),
			}))
		}
	}

	return &pipelineEnv{
		Store:    st,
		Session:  session,
		Enricher: enrich.NewEnricher(discoverer, extractor, opts...),
	}, nil
}

func loadKeywords() (scorer.Keywords, error) {
	if cfg.Scorer.KeywordsFile == "" {
		return scorer.DefaultKeywords(), nil
	}
	kw, err := scorer.LoadKeywords(cfg.Scorer.KeywordsFile)
	if err != nil {
		return scorer.Keywords{}, eris.Wrap(err, "load keywords file")
	}
	return kw, nil
}

func buildSurfaces(session *browser.Session) ([]discovery.Surface, error) {
	var surfaces []discovery.Surface
	for _, name := range cfg.Search.Surfaces {
		switch name {
		case "duckduckgo":
			surfaces = append(surfaces, discovery.NewDuckDuckGoSurface(session))
		case "bing":
			surfaces = append(surfaces, discovery.NewBingSurface(session))
		default:
			return nil, eris.Errorf("unknown search surface: %s", name)
		}
	}
	if len(surfaces) == 0 {
		return nil, eris.New("no search surfaces configured")
	}
	return surfaces, nil
}

// geocoderAdapter bridges the geocode client to the enrichment pipeline.
type geocoderAdapter struct {
	client geocode.Client
}

func (a *geocoderAdapter) Locate(ctx context.Context, name, location string) (*model.LocationData, error) {
	result, err := a.client.Locate(ctx, name, location)
	if err != nil {
		return nil, err
	}
	return &model.LocationData{
		Address:   result.Address,
		MapsURL:   result.MapsURL,
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		PlaceID:   result.PlaceID,
	}, nil
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
