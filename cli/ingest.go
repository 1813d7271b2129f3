package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/ingest"
	"github.com/opencite/litgraph/model"
)

var (
	ingestQuery      string
	ingestMaxResults int
	ingestSourceURL  string
	ingestContact    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch papers from a source and add new ones to the graph store",
}

var ingestArxivCmd = &cobra.Command{
	Use:   "arxiv",
	Short: "Ingest recent papers from a bibliographic (arXiv-style) feed",
	RunE:  runIngestArxiv,
}

var ingestSemanticScholarCmd = &cobra.Command{
	Use:   "semantic-scholar",
	Short: "Ingest recent papers from the Semantic Scholar Graph API",
	RunE:  runIngestSemanticScholar,
}

func init() {
	ingestCmd.PersistentFlags().StringVar(&ingestQuery, "query", "", "search query")
	ingestCmd.PersistentFlags().IntVar(&ingestMaxResults, "max-results", 50, "maximum results to fetch")
	ingestCmd.PersistentFlags().StringVar(&ingestSourceURL, "source-url", "", "override the source's base URL")
	ingestCmd.PersistentFlags().StringVar(&ingestContact, "contact", "", "contact string for open-access enrichment lookups")
	ingestCmd.MarkPersistentFlagRequired("query")

	ingestCmd.AddCommand(ingestArxivCmd)
	ingestCmd.AddCommand(ingestSemanticScholarCmd)
}

func buildIngestionService(repo graphstore.GraphRepository) (*ingest.Service, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	contact := ingestContact
	if contact == "" {
		contact = s.Sources.Contact
	}
	var oaClient *ingest.OpenAccessClient
	if contact != "" {
		oaClient = ingest.NewOpenAccessClient(s.Sources.OpenAccessBaseURL, contact, sharedLimiter(), nil)
	}

	existing := func(ctx context.Context) ([]model.Paper, error) {
		return repo.FindExistingPapers(ctx, 10000)
	}
	sink := func(ctx context.Context, papers []model.Paper) error {
		for _, p := range papers {
			if err := repo.SavePaper(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}

	svc := ingest.NewService(existing, sink, oaClient).WithDedupThresholds(ingest.Thresholds{
		ExactTitle:       s.Dedup.ExactTitleThreshold,
		CandidateTitle:   s.Dedup.CandidateTitleThreshold,
		MinAuthorMatches: s.Dedup.MinAuthorMatches,
	})
	return svc, nil
}

func runIngestArxiv(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	s, err := loadSettings()
	if err != nil {
		return err
	}
	baseURL := ingestSourceURL
	if baseURL == "" {
		baseURL = s.Sources.ArxivBaseURL
	}
	client := ingest.NewBibliographicClient(baseURL, sharedLimiter())
	svc, err := buildIngestionService(store.Repository)
	if err != nil {
		return err
	}

	result, err := svc.IngestFromArxiv(ctx, func(ctx context.Context) ([]model.Paper, error) {
		return client.FetchRecent(ctx, ingestQuery, ingestMaxResults)
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runIngestSemanticScholar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	s, err := loadSettings()
	if err != nil {
		return err
	}
	baseURL := ingestSourceURL
	if baseURL == "" {
		baseURL = s.Sources.SemanticScholarBaseURL
	}
	client := ingest.NewSemanticScholarClient(baseURL, sharedLimiter())
	svc, err := buildIngestionService(store.Repository)
	if err != nil {
		return err
	}

	result, err := svc.IngestFromSemanticScholar(ctx, func(ctx context.Context) ([]model.Paper, error) {
		return client.FetchRecent(ctx, ingestQuery, ingestMaxResults)
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
