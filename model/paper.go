package model

import "time"

// PaperSource identifies where a Paper record originated.
type PaperSource string

const (
	SourceBibliographic PaperSource = "bibliographic"
	SourceOpenAccess    PaperSource = "open-access"
	SourceManual        PaperSource = "manual"
)

// ProcessingStatus tracks a Paper through the ingestion/extraction lifecycle.
type ProcessingStatus string

const (
	StatusIngested   ProcessingStatus = "ingested"
	StatusExtracting ProcessingStatus = "extracting"
	StatusExtracted  ProcessingStatus = "extracted"
	StatusReviewing  ProcessingStatus = "reviewing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Author is one entry in a Paper's author list.
type Author struct {
	Name         string
	Affiliations []string
	ExternalID   string
}

// Paper is the canonical ingestion record for a piece of scholarly literature.
type Paper struct {
	ID               string
	Title            string
	Authors          []Author
	Abstract         string
	PublishedDate    time.Time
	Source           PaperSource
	Categories       []string
	ContentHash      string
	IngestionDate    time.Time
	LastUpdated      time.Time
	ProcessingStatus ProcessingStatus

	DOI            string
	ExternalID     string
	CitationCount  *int
	References     []string
}

// AuthorNames returns the plain author name list in order.
func (p *Paper) AuthorNames() []string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return names
}
