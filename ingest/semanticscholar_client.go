package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/opencite/litgraph/httpclient"
	"github.com/opencite/litgraph/model"
	"github.com/opencite/litgraph/ratelimit"
)

// s2Fields is the field set every single-paper and batch lookup requests,
// matching FetchRecent's search projection.
const s2Fields = "title,abstract,publicationDate,authors,fieldsOfStudy,externalIds,citationCount"

// SemanticScholarClient fetches paper metadata from the Semantic Scholar
// Graph API's bulk search endpoint, sharing BibliographicClient's
// rate-limited HTTP adapter style but parsing JSON rather than Atom XML.
type SemanticScholarClient struct {
	http    *httpclient.Client
	baseURL string
}

// NewSemanticScholarClient builds a client against baseURL (e.g.
// "https://api.semanticscholar.org/graph/v1/paper/search"). limiter is
// the process-wide bucket shared with the other source clients; nil
// falls back to a private conservative limiter.
func NewSemanticScholarClient(baseURL string, limiter *ratelimit.Limiter) *SemanticScholarClient {
	if limiter == nil {
		limiter = ratelimit.NewBibliographicLimiter()
	}
	return &SemanticScholarClient{
		http:    httpclient.New(limiter, "litgraph-ingest/1.0"),
		baseURL: baseURL,
	}
}

type s2SearchResponse struct {
	Data []s2Paper `json:"data"`
}

type s2Paper struct {
	PaperID         string       `json:"paperId"`
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract"`
	PublicationDate string       `json:"publicationDate"`
	Authors         []s2Author   `json:"authors"`
	FieldsOfStudy   []string     `json:"fieldsOfStudy"`
	ExternalIDs     s2ExternalID `json:"externalIds"`
	CitationCount   *int         `json:"citationCount"`
}

type s2Author struct {
	Name string `json:"name"`
}

type s2ExternalID struct {
	DOI string `json:"DOI"`
}

// FetchRecent queries the search endpoint for up to maxResults papers
// matching searchQuery and parses them into the canonical Paper model.
func (c *SemanticScholarClient) FetchRecent(ctx context.Context, searchQuery string, maxResults int) ([]model.Paper, error) {
	fields := "title,abstract,publicationDate,authors,fieldsOfStudy,externalIds,citationCount"
	req := httpclient.NewRequest("GET", fmt.Sprintf("%s?query=%s&limit=%d&fields=%s", c.baseURL, searchQuery, maxResults, fields))
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetching semantic scholar results: %w", err)
	}

	var parsed s2SearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("ingest: parsing semantic scholar response: %w", err)
	}

	papers := make([]model.Paper, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		papers = append(papers, s2PaperToPaper(p))
	}
	return papers, nil
}

// paperBaseURL derives the Graph API's single/batch paper endpoint root
// from the search endpoint baseURL ("/paper/search" -> "/paper").
func (c *SemanticScholarClient) paperBaseURL() string {
	return strings.TrimSuffix(c.baseURL, "/search")
}

// GetByDOI fetches the single paper identified by doi via the Graph API's
// "DOI:<doi>" paper-id form. A 404 (no such paper) returns a nil paper
// with no error.
func (c *SemanticScholarClient) GetByDOI(ctx context.Context, doi string) (*model.Paper, error) {
	return c.getByPaperID(ctx, "DOI:"+doi)
}

// GetByExternalID fetches the single paper identified by the source's
// native Semantic Scholar paper ID.
func (c *SemanticScholarClient) GetByExternalID(ctx context.Context, externalID string) (*model.Paper, error) {
	return c.getByPaperID(ctx, externalID)
}

func (c *SemanticScholarClient) getByPaperID(ctx context.Context, paperID string) (*model.Paper, error) {
	req := httpclient.NewRequest("GET", fmt.Sprintf("%s/%s?fields=%s", c.paperBaseURL(), url.PathEscape(paperID), s2Fields))
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ingest: fetching semantic scholar paper %s: %w", paperID, err)
	}

	var parsed s2Paper
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("ingest: parsing semantic scholar paper %s: %w", paperID, err)
	}
	paper := s2PaperToPaper(parsed)
	return &paper, nil
}

// GetBatchByDOI fetches all of dois in a single Graph API batch call,
// returning the matches found and, by index into dois, an error for any
// DOI the batch endpoint had no record of or that failed to parse.
func (c *SemanticScholarClient) GetBatchByDOI(ctx context.Context, dois []string) ([]model.Paper, map[int]error) {
	if len(dois) == 0 {
		return nil, nil
	}

	ids := make([]string, len(dois))
	for i, doi := range dois {
		ids[i] = "DOI:" + doi
	}
	body, err := json.Marshal(map[string]any{"ids": ids})
	if err != nil {
		return nil, allIndicesFailed(len(dois), err)
	}

	req := httpclient.NewRequest("POST", fmt.Sprintf("%s/batch?fields=%s", c.paperBaseURL(), s2Fields))
	req.JSONBody = string(body)
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, allIndicesFailed(len(dois), fmt.Errorf("ingest: semantic scholar batch lookup: %w", err))
	}

	var parsed []*s2Paper
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, allIndicesFailed(len(dois), fmt.Errorf("ingest: parsing semantic scholar batch response: %w", err))
	}

	papers := make([]model.Paper, 0, len(parsed))
	errs := make(map[int]error)
	for i, p := range parsed {
		if p == nil {
			errs[i] = fmt.Errorf("ingest: semantic scholar batch lookup found no match for %s", dois[i])
			continue
		}
		papers = append(papers, s2PaperToPaper(*p))
	}
	return papers, errs
}

func allIndicesFailed(n int, err error) map[int]error {
	errs := make(map[int]error, n)
	for i := 0; i < n; i++ {
		errs[i] = err
	}
	return errs
}

func s2PaperToPaper(p s2Paper) model.Paper {
	authors := make([]model.Author, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = model.Author{Name: a.Name}
	}

	published, _ := time.Parse("2006-01-02", p.PublicationDate)

	return model.Paper{
		ExternalID:    p.PaperID,
		Title:         p.Title,
		Authors:       authors,
		Abstract:      p.Abstract,
		PublishedDate: published,
		Source:        model.SourceBibliographic,
		Categories:    p.FieldsOfStudy,
		DOI:           p.ExternalIDs.DOI,
		CitationCount: p.CitationCount,
		IngestionDate: time.Now(),
		LastUpdated:   time.Now(),
	}
}
