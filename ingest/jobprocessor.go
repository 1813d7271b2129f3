package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/opencite/litgraph/model"
)

// SourceFetcher resolves a single paper by its source-native external ID.
// *BibliographicClient and *SemanticScholarClient both satisfy it.
type SourceFetcher interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.Paper, error)
}

// jobProcessor adapts Service to the JobProcessor interface a Pool drains
// queued per-paper jobs through, resolving each job's source client by
// Job.Source and running the fetched paper through the same dedupe/enrich/
// sink pipeline IngestFromArxiv/IngestFromSemanticScholar use.
type jobProcessor struct {
	svc     *Service
	sources map[string]SourceFetcher
	timeout time.Duration
}

// NewJobProcessor builds a JobProcessor over svc, resolving each Job.Source
// against sources (keyed the same way as the queue names jobs are enqueued
// under, e.g. "arxiv", "semantic-scholar").
func NewJobProcessor(svc *Service, sources map[string]SourceFetcher) JobProcessor {
	return &jobProcessor{svc: svc, sources: sources, timeout: 30 * time.Second}
}

// Timeout bounds how long a single paper's fetch+enrich+sink may take before
// the worker pool reclaims it as failed and (per FailJob) decides whether to
// requeue it.
func (p *jobProcessor) Timeout(job Job) time.Duration {
	return p.timeout
}

// Process fetches the single paper named by job, then runs it through the
// full ingestion pipeline (content hashing, dedup against the existing
// snapshot, open-access enrichment, persistence).
func (p *jobProcessor) Process(ctx context.Context, job Job) error {
	source, ok := p.sources[job.Source]
	if !ok {
		return fmt.Errorf("ingest: no source registered for job queue %q", job.Source)
	}

	fetch := func(ctx context.Context) ([]model.Paper, error) {
		paper, err := source.GetByExternalID(ctx, job.PaperID)
		if err != nil {
			return nil, err
		}
		if paper == nil {
			return nil, nil
		}
		return []model.Paper{*paper}, nil
	}

	_, err := p.svc.ingest(ctx, job.Source, fetch)
	return err
}
