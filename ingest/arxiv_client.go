package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/opencite/litgraph/httpclient"
	"github.com/opencite/litgraph/model"
	"github.com/opencite/litgraph/ratelimit"
)

// BibliographicClient fetches paper metadata from a bibliographic source
// (modeled on arXiv's Atom export API) under a conservative, source-wide
// rate limit.
type BibliographicClient struct {
	http    *httpclient.Client
	baseURL string
}

// NewBibliographicClient builds a client against baseURL (e.g.
// "http://export.arxiv.org/api/query"). limiter is the process-wide
// bucket shared with the other source clients; nil falls back to a
// private limiter at the conservative one-request-per-three-seconds
// default.
func NewBibliographicClient(baseURL string, limiter *ratelimit.Limiter) *BibliographicClient {
	if limiter == nil {
		limiter = ratelimit.NewBibliographicLimiter()
	}
	return &BibliographicClient{
		http:    httpclient.New(limiter, "litgraph-ingest/1.0"),
		baseURL: baseURL,
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Updated   string       `xml:"updated"`
	Authors   []atomAuthor `xml:"author"`
	Category  []atomCat    `xml:"category"`
	DOI       string       `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCat struct {
	Term string `xml:"term,attr"`
}

// FetchRecent queries the feed for up to maxResults recent papers matching
// searchQuery and parses them into the canonical Paper model.
func (c *BibliographicClient) FetchRecent(ctx context.Context, searchQuery string, maxResults int) ([]model.Paper, error) {
	req := httpclient.NewRequest("GET", fmt.Sprintf("%s?search_query=%s&max_results=%d", c.baseURL, searchQuery, maxResults))
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetching bibliographic feed: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("ingest: parsing bibliographic feed: %w", err)
	}

	papers := make([]model.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		papers = append(papers, entryToPaper(entry))
	}
	return papers, nil
}

// GetByDOI fetches the single paper matching doi, if any, via a
// doi-scoped search_query.
func (c *BibliographicClient) GetByDOI(ctx context.Context, doi string) (*model.Paper, error) {
	papers, err := c.FetchRecent(ctx, fmt.Sprintf("doi:%s", doi), 1)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, nil
	}
	return &papers[0], nil
}

// GetByExternalID fetches the single paper matching externalID (the
// source's native identifier, e.g. an arXiv ID) via the feed's id_list
// parameter.
func (c *BibliographicClient) GetByExternalID(ctx context.Context, externalID string) (*model.Paper, error) {
	req := httpclient.NewRequest("GET", fmt.Sprintf("%s?id_list=%s", c.baseURL, externalID))
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetching bibliographic entry %s: %w", externalID, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("ingest: parsing bibliographic entry %s: %w", externalID, err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	paper := entryToPaper(feed.Entries[0])
	return &paper, nil
}

// GetBatchByDOI looks up each DOI in dois in turn, collecting matches and,
// by index, any individual lookup failure, without aborting the batch.
func (c *BibliographicClient) GetBatchByDOI(ctx context.Context, dois []string) ([]model.Paper, map[int]error) {
	var papers []model.Paper
	errs := make(map[int]error)
	for i, doi := range dois {
		p, err := c.GetByDOI(ctx, doi)
		if err != nil {
			errs[i] = err
			continue
		}
		if p != nil {
			papers = append(papers, *p)
		}
	}
	return papers, errs
}

func entryToPaper(e atomEntry) model.Paper {
	authors := make([]model.Author, len(e.Authors))
	for i, a := range e.Authors {
		authors[i] = model.Author{Name: a.Name}
	}
	categories := make([]string, len(e.Category))
	for i, c := range e.Category {
		categories[i] = c.Term
	}

	published, _ := time.Parse(time.RFC3339, e.Published)

	return model.Paper{
		ExternalID:    e.ID,
		Title:         e.Title,
		Authors:       authors,
		Abstract:      e.Summary,
		PublishedDate: published,
		Source:        model.SourceBibliographic,
		Categories:    categories,
		DOI:           e.DOI,
		IngestionDate: time.Now(),
		LastUpdated:   time.Now(),
	}
}
