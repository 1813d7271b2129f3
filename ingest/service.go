package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/model"
)

const defaultEnrichConcurrency = 5

// FetchFunc retrieves a batch of candidate papers from one source.
type FetchFunc func(ctx context.Context) ([]model.Paper, error)

// ExistingSnapshotFunc supplies the comparison set the deduplicator checks
// incoming papers against, typically backed by graphstore.GraphRepository's
// FindExistingPapers.
type ExistingSnapshotFunc func(ctx context.Context) ([]model.Paper, error)

// SinkFunc persists newly accepted papers, typically backed by
// graphstore.GraphRepository's SavePaper.
type SinkFunc func(ctx context.Context, papers []model.Paper) error

// IngestionResult summarizes one ingestFromArxiv/ingestFromSemanticScholar
// run.
type IngestionResult struct {
	TotalFetched      int
	NewPapers         int
	UpdatedPapers     int
	DuplicatesSkipped int
	DurationMs        int64
	Errors            []string
	Timestamp         time.Time
}

// Service orchestrates fetch -> dedupe -> enrich -> sink, one shared
// pipeline shape for both supported sources.
type Service struct {
	existing          ExistingSnapshotFunc
	sink              SinkFunc
	openAccess        *OpenAccessClient
	enrichConcurrency int
	dedupThresholds   Thresholds
	now               func() time.Time
	logger            *common.ContextLogger
}

// NewService wires the snapshot/sink callbacks and an optional
// open-access enrichment client (nil disables enrichment entirely).
func NewService(existing ExistingSnapshotFunc, sink SinkFunc, openAccess *OpenAccessClient) *Service {
	return &Service{
		existing:          existing,
		sink:              sink,
		openAccess:        openAccess,
		enrichConcurrency: defaultEnrichConcurrency,
		dedupThresholds:   DefaultThresholds(),
		now:               time.Now,
		logger:            common.ServiceLogger("ingest", "service"),
	}
}

// WithEnrichConcurrency overrides the default bound on concurrent
// open-access enrichment lookups per ingestion batch.
func (s *Service) WithEnrichConcurrency(n int) *Service {
	if n > 0 {
		s.enrichConcurrency = n
	}
	return s
}

// WithDedupThresholds overrides the duplicate-detection parameters used
// by every subsequent ingestion run.
func (s *Service) WithDedupThresholds(th Thresholds) *Service {
	s.dedupThresholds = th
	return s
}

// IngestFromArxiv runs the shared pipeline using fetch as the source,
// labeled for the arXiv bibliographic source in logs and errors.
func (s *Service) IngestFromArxiv(ctx context.Context, fetch FetchFunc) (IngestionResult, error) {
	return s.ingest(ctx, "arxiv", fetch)
}

// IngestFromSemanticScholar runs the shared pipeline using fetch as the
// source, labeled for Semantic Scholar in logs and errors.
func (s *Service) IngestFromSemanticScholar(ctx context.Context, fetch FetchFunc) (IngestionResult, error) {
	return s.ingest(ctx, "semantic-scholar", fetch)
}

func (s *Service) ingest(ctx context.Context, sourceLabel string, fetch FetchFunc) (IngestionResult, error) {
	start := s.now()
	result := IngestionResult{Timestamp: start}

	fetched, err := fetch(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "fetch: "+err.Error())
		result.DurationMs = s.now().Sub(start).Milliseconds()
		return result, err
	}
	result.TotalFetched = len(fetched)

	existing, err := s.existing(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "loading existing snapshot: "+err.Error())
		result.DurationMs = s.now().Sub(start).Milliseconds()
		return result, err
	}

	// Deduplication is registration-order dependent (each accepted paper
	// becomes part of the comparison set for the ones after it), so this
	// pass stays strictly sequential.
	dedup := NewDeduplicatorWithThresholds(existing, s.dedupThresholds)
	var accepted []model.Paper
	for _, p := range fetched {
		p.ContentHash = ComputeContentHash(p)
		p.IngestionDate = s.now()
		p.LastUpdated = s.now()
		if p.ProcessingStatus == "" {
			p.ProcessingStatus = model.StatusIngested
		}

		verdict := dedup.Check(p)
		if verdict.IsDuplicate {
			result.DuplicatesSkipped++
			continue
		}
		if verdict.NeedsReview {
			s.logger.WithField("title", p.Title).Info("candidate paper flagged for manual dedup review")
		}

		dedup.Accept(p)
		accepted = append(accepted, p)
	}

	// Each accepted paper's enrichment lookup is independent of every
	// other, so this pass fans out with bounded concurrency.
	s.enrichBatch(ctx, accepted, &result)

	result.NewPapers = len(accepted)
	if len(accepted) > 0 {
		if err := s.sink(ctx, accepted); err != nil {
			result.Errors = append(result.Errors, "sink: "+err.Error())
		}
	}

	result.DurationMs = s.now().Sub(start).Milliseconds()
	return result, nil
}

// enrichBatch runs enrich for every paper in accepted concurrently, bounded
// by s.enrichConcurrency, mutating each paper in place and merging errors
// under a mutex since result is shared across workers.
func (s *Service) enrichBatch(ctx context.Context, accepted []model.Paper, result *IngestionResult) {
	if len(accepted) == 0 {
		return
	}

	sem := make(chan struct{}, s.concurrency())
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := range accepted {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *model.Paper) {
			defer wg.Done()
			defer func() { <-sem }()

			var local IngestionResult
			s.enrich(ctx, p, &local)
			if len(local.Errors) > 0 {
				mu.Lock()
				result.Errors = append(result.Errors, local.Errors...)
				mu.Unlock()
			}
		}(&accepted[i])
	}
	wg.Wait()
}

func (s *Service) concurrency() int {
	if s.enrichConcurrency <= 0 {
		return defaultEnrichConcurrency
	}
	return s.enrichConcurrency
}

// enrich tries to fill in citationCount/references from the open-access
// client when the paper has a DOI and the client's circuit is closed.
// Enrichment failures are recorded in result.Errors and never abort the
// batch.
func (s *Service) enrich(ctx context.Context, p *model.Paper, result *IngestionResult) {
	if s.openAccess == nil || p.DOI == "" {
		return
	}
	if !s.openAccess.IsAvailable() {
		return
	}

	enrichment, err := s.openAccess.Lookup(ctx, p.DOI)
	if err != nil {
		if _, ok := err.(*CircuitOpenError); ok {
			result.Errors = append(result.Errors, "enrichment circuit open for "+p.DOI)
		} else {
			result.Errors = append(result.Errors, "enrichment failed for "+p.DOI+": "+err.Error())
		}
		return
	}

	if p.CitationCount == nil && enrichment.CitationCount != nil {
		p.CitationCount = enrichment.CitationCount
	}
	if len(p.References) == 0 && len(enrichment.References) > 0 {
		p.References = enrichment.References
	}
}
