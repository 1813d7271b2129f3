package model

import "time"

// AliasSource records which normalization stage produced an alias mapping.
type AliasSource string

const (
	AliasSourceRule       AliasSource = "rule"
	AliasSourceSimilarity AliasSource = "similarity"
	AliasSourceLLM        AliasSource = "llm"
	AliasSourceImport     AliasSource = "import"
)

// Alias maps a surface form to a canonical entity name. The lowercased,
// trimmed Alias field is the primary key; multiple aliases may share one
// Canonical.
type Alias struct {
	Alias      string
	Canonical  string
	Confidence float64
	Source     AliasSource
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizationRule is one regex rewrite applied during the rule-normalization
// stage of the canonicalization cascade. Rules are sorted by descending
// Priority and applied in that order.
type NormalizationRule struct {
	Pattern     string
	Replacement string
	Priority    int
	Category    string
}
