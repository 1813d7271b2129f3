package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/opencite/litgraph/httpclient"
	"github.com/opencite/litgraph/ratelimit"
)

// OpenAccessClient looks up the best available PDF location for a DOI
// (modeled on the Unpaywall API), protected by a caller-supplied circuit
// breaker since open-access lookups are the enrichment step most likely to
// be flaky or rate-limited upstream.
type OpenAccessClient struct {
	http    *httpclient.Client
	baseURL string
	contact string
	breaker *CircuitBreaker
}

// NewOpenAccessClient builds a client against baseURL, identifying the
// caller via the required contact string (e.g. an email address), and
// runs every call through breaker; nil gets one default breaker (5
// failures, 30s reset) shared by all of this client's calls. limiter is the
// process-wide bucket shared with the other source clients; nil falls
// back to a private conservative limiter.
func NewOpenAccessClient(baseURL, contact string, limiter *ratelimit.Limiter, breaker *CircuitBreaker) *OpenAccessClient {
	if limiter == nil {
		limiter = ratelimit.NewBibliographicLimiter()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(5, 30*time.Second)
	}
	return &OpenAccessClient{
		http:    httpclient.New(limiter, "litgraph-ingest/1.0"),
		baseURL: baseURL,
		contact: contact,
		breaker: breaker,
	}
}

// IsAvailable reports whether the breaker currently allows a lookup call.
func (c *OpenAccessClient) IsAvailable() bool { return c.breaker.IsAvailable() }

type oaLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

type oaResponse struct {
	DOI            string        `json:"doi"`
	BestOALocation *oaLocation   `json:"best_oa_location"`
	OALocations    []oaLocation  `json:"oa_locations"`
	CitationCount  *int          `json:"citation_count"`
	References     []oaReference `json:"references"`
}

type oaReference struct {
	DOI string `json:"doi"`
}

// Enrichment is the supplementary data an open-access lookup can surface
// for a paper already in the store.
type Enrichment struct {
	PDFURL        string
	CitationCount *int
	References    []string
}

// Lookup fetches the best-available PDF location for doi. A 404 means "no
// record" and returns a zero Enrichment with no error, not a failure; any
// other non-2xx response or transport error counts against the circuit
// breaker. Calls are rejected immediately with a *CircuitOpenError when
// the breaker is open.
func (c *OpenAccessClient) Lookup(ctx context.Context, doi string) (Enrichment, error) {
	var result Enrichment
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		req := httpclient.NewRequest("GET", fmt.Sprintf("%s/%s?email=%s", c.baseURL, url.PathEscape(doi), url.QueryEscape(c.contact)))
		resp, err := c.http.Do(ctx, req)
		if err != nil {
			if httpclient.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("ingest: open-access lookup for %s: %w", doi, err)
		}
		if resp.StatusCode == 404 {
			return nil
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("ingest: open-access lookup for %s returned status %d", doi, resp.StatusCode)
		}

		var parsed oaResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return fmt.Errorf("ingest: parsing open-access response for %s: %w", doi, err)
		}

		if parsed.BestOALocation != nil && parsed.BestOALocation.URLForPDF != "" {
			result.PDFURL = parsed.BestOALocation.URLForPDF
		} else {
			for _, loc := range parsed.OALocations {
				if loc.URLForPDF != "" {
					result.PDFURL = loc.URLForPDF
					break
				}
			}
		}

		result.CitationCount = parsed.CitationCount
		for _, ref := range parsed.References {
			if ref.DOI != "" {
				result.References = append(result.References, ref.DOI)
			}
		}
		return nil
	})
	if err != nil {
		return Enrichment{}, err
	}
	return result, nil
}
