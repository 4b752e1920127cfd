// Package enrich runs the per-record pipeline and the batch scheduler
// around it. One enrichment attempt is discovery, extraction and
// classification; the batch layer fans attempts out over a bounded slot
// pool in fixed-size chunks.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/resilience"
)

// Discoverer finds a record's website.
type Discoverer interface {
	Discover(ctx context.Context, record model.Record) (string, bool)
}

// Extractor pulls contact info out of a website.
type Extractor interface {
	Extract(ctx context.Context, url string) model.ContactInfo
}

// Geocoder resolves a record's physical location. Optional.
type Geocoder interface {
	Locate(ctx context.Context, name, location string) (*model.LocationData, error)
}

// Registry resolves a business name to its tax identifier and legal
// name. Optional.
type Registry interface {
	Identify(ctx context.Context, name string) (cuitID, legalName string, err error)
}

// Enricher runs the full pipeline for one record at a time. Safe for
// concurrent use.
type Enricher struct {
	discoverer Discoverer
	extractor  Extractor
	geocoder   Geocoder
	registry   Registry
}

// Option configures optional pipeline stages.
type Option func(*Enricher)

// WithGeocoder enables the location lookup stage.
func WithGeocoder(g Geocoder) Option {
	return func(e *Enricher) { e.geocoder = g }
}

// WithRegistry enables the tax-identifier lookup stage.
func WithRegistry(r Registry) Option {
	return func(e *Enricher) { e.registry = r }
}

// NewEnricher wires the pipeline stages together.
func NewEnricher(d Discoverer, x Extractor, opts ...Option) *Enricher {
	e := &Enricher{discoverer: d, extractor: x}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichOne produces exactly one result for the record. It never
// returns an error: failures at any stage degrade to a FAILED or
// PARTIAL result, and a panic inside a stage is caught and recorded.
func (e *Enricher) EnrichOne(ctx context.Context, record model.Record) model.EnrichmentResult {
	attempt := resilience.Try(ctx, func(ctx context.Context) (model.EnrichmentResult, error) {
		return e.enrich(ctx, record), nil
	})
	if !attempt.OK() {
		zap.L().Error("enrich: attempt aborted",
			zap.String("record", record.Name),
			zap.Error(attempt.Err),
		)
		return model.EnrichmentResult{
			Record:      record,
			Status:      model.StatusFailed,
			ProcessedAt: time.Now(),
			Errors:      []string{attempt.Err.Error()},
		}
	}
	return attempt.Value
}

func (e *Enricher) enrich(ctx context.Context, record model.Record) model.EnrichmentResult {
	result := model.EnrichmentResult{
		Record:      record,
		ProcessedAt: time.Now(),
	}

	if e.registry != nil && (record.CUIT == "" || record.LegalName == "") {
		if cuitID, legalName, err := e.registry.Identify(ctx, record.Name); err == nil {
			if result.Record.CUIT == "" {
				result.Record.CUIT = cuitID
			}
			if result.Record.LegalName == "" {
				result.Record.LegalName = legalName
			}
		} else {
			zap.L().Debug("enrich: registry lookup failed",
				zap.String("record", record.Name),
				zap.Error(err),
			)
		}
	}

	website, found := e.discoverer.Discover(ctx, result.Record)
	if found {
		result.ContactInfo = e.extractor.Extract(ctx, website)
	} else {
		result.Errors = append(result.Errors, "no website found")
	}

	if e.geocoder != nil {
		location, err := e.geocoder.Locate(ctx, result.Record.Name, result.Record.Location)
		if err != nil {
			result.Errors = append(result.Errors, "geocode: "+err.Error())
		} else {
			result.Location = location
		}
	}

	result.Status = model.Classify(result.ContactInfo)

	zap.L().Info("enrich: record processed",
		zap.String("record", record.Name),
		zap.String("status", string(result.Status)),
		zap.Bool("website", result.ContactInfo.Website != ""),
		zap.Bool("email", result.ContactInfo.Email != ""),
		zap.Bool("phone", result.ContactInfo.Phone != ""),
	)
	return result
}
