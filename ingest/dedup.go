package ingest

import (
	"context"
	"strings"

	"github.com/opencite/litgraph/model"
)

// Thresholds carries the tunable duplicate-detection parameters.
type Thresholds struct {
	// ExactTitle is the normalized-title similarity above which a
	// candidate is treated as the same paper, no author check required.
	ExactTitle float64
	// CandidateTitle is the similarity floor below which two titles are
	// not even considered for author-overlap confirmation.
	CandidateTitle float64
	// MinAuthorMatches is how many authors must overlap (by normalized
	// name) to confirm a candidate-range title match as a duplicate.
	MinAuthorMatches int
}

// DefaultThresholds returns the standard detection parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{ExactTitle: 0.95, CandidateTitle: 0.80, MinAuthorMatches: 3}
}

// Deduplicator decides whether an incoming paper is already present in the
// store, first by DOI/external-ID exact match, then by normalized-title
// similarity corroborated by author overlap.
type Deduplicator struct {
	existing   []model.Paper
	thresholds Thresholds
}

// NewDeduplicator seeds the comparison set with papers already in the
// store, using the default thresholds.
func NewDeduplicator(existing []model.Paper) *Deduplicator {
	return NewDeduplicatorWithThresholds(existing, DefaultThresholds())
}

// NewDeduplicatorWithThresholds seeds the comparison set and overrides the
// detection parameters; zero-valued fields are replaced by the defaults.
func NewDeduplicatorWithThresholds(existing []model.Paper, th Thresholds) *Deduplicator {
	def := DefaultThresholds()
	if th.ExactTitle <= 0 {
		th.ExactTitle = def.ExactTitle
	}
	if th.CandidateTitle <= 0 {
		th.CandidateTitle = def.CandidateTitle
	}
	if th.MinAuthorMatches <= 0 {
		th.MinAuthorMatches = def.MinAuthorMatches
	}
	return &Deduplicator{existing: existing, thresholds: th}
}

// MatchType identifies which check matched a duplicate candidate.
type MatchType string

const (
	MatchDOI         MatchType = "doi"
	MatchTitle       MatchType = "title"
	MatchTitleAuthor MatchType = "title_author"
)

// Verdict is the full outcome of checking one candidate paper against the
// comparison set: whether it's a duplicate, what matched, how confident
// the match is, and whether a borderline score warrants human review.
type Verdict struct {
	IsDuplicate bool
	MatchedID   string
	MatchType   MatchType
	Similarity  float64
	NeedsReview bool
}

// Check runs the full duplicate-detection cascade (DOI exact match,
// external-ID exact match, then normalized-title similarity corroborated
// by author overlap) and returns a structured verdict.
func (d *Deduplicator) Check(candidate model.Paper) Verdict {
	if candidate.DOI != "" {
		for i := range d.existing {
			if d.existing[i].DOI != "" && d.existing[i].DOI == candidate.DOI {
				return Verdict{IsDuplicate: true, MatchedID: d.existing[i].ID, MatchType: MatchDOI, Similarity: 1.0}
			}
		}
	}
	if candidate.ExternalID != "" {
		for i := range d.existing {
			if d.existing[i].ExternalID != "" && d.existing[i].ExternalID == candidate.ExternalID {
				return Verdict{IsDuplicate: true, MatchedID: d.existing[i].ID, MatchType: MatchDOI, Similarity: 1.0}
			}
		}
	}

	candidateTitle := normalizeTitle(candidate.Title)
	candidateAuthors := normalizeAuthorSet(candidate.AuthorNames())

	var bestSim float64
	var bestID string
	for i := range d.existing {
		existingTitle := normalizeTitle(d.existing[i].Title)
		sim := titleSimilarity(candidateTitle, existingTitle)

		if sim >= d.thresholds.ExactTitle {
			return Verdict{IsDuplicate: true, MatchedID: d.existing[i].ID, MatchType: MatchTitle, Similarity: sim, NeedsReview: sim < 1.0}
		}
		if sim >= d.thresholds.CandidateTitle {
			existingAuthors := normalizeAuthorSet(d.existing[i].AuthorNames())
			if countOverlap(candidateAuthors, existingAuthors) >= d.thresholds.MinAuthorMatches {
				return Verdict{IsDuplicate: true, MatchedID: d.existing[i].ID, MatchType: MatchTitleAuthor, Similarity: sim, NeedsReview: true}
			}
			if sim > bestSim {
				bestSim, bestID = sim, d.existing[i].ID
			}
		}
	}

	if bestSim >= d.thresholds.CandidateTitle {
		return Verdict{IsDuplicate: false, MatchedID: bestID, MatchType: MatchTitle, Similarity: bestSim, NeedsReview: true}
	}
	return Verdict{IsDuplicate: false}
}

// IsDuplicate reports whether candidate matches anything already in the
// comparison set, returning the matched paper when found. It is a thin
// projection of Check for callers that only need the matched record.
func (d *Deduplicator) IsDuplicate(candidate model.Paper) (*model.Paper, bool) {
	verdict := d.Check(candidate)
	if !verdict.IsDuplicate {
		return nil, false
	}
	for i := range d.existing {
		if d.existing[i].ID == verdict.MatchedID {
			return &d.existing[i], true
		}
	}
	return nil, false
}

// Accept adds candidate to the comparison set so subsequent IsDuplicate
// calls within the same batch see it too.
func (d *Deduplicator) Accept(candidate model.Paper) {
	d.existing = append(d.existing, candidate)
}

// DeduplicateBatch runs IsDuplicate over items in order, accumulating
// accepted (non-duplicate) items into the comparison set as it goes so
// later items in the same batch are checked against earlier ones.
func (d *Deduplicator) DeduplicateBatch(ctx context.Context, items []model.Paper) (accepted []model.Paper, duplicates []model.Paper) {
	for _, item := range items {
		if _, dup := d.IsDuplicate(item); dup {
			duplicates = append(duplicates, item)
			continue
		}
		d.Accept(item)
		accepted = append(accepted, item)
	}
	return accepted, duplicates
}

func normalizeTitle(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	prevSpace := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func normalizeAuthorSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return out
}

func countOverlap(a, b map[string]struct{}) int {
	count := 0
	for name := range a {
		if _, ok := b[name]; ok {
			count++
		}
	}
	return count
}

// titleSimilarity scores two normalized titles in [0, 1] using Levenshtein
// edit distance relative to the longer title's length.
func titleSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// levenshtein computes the edit distance between a and b using the
// classic single-row dynamic-programming formulation.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minInt(del, minInt(ins, sub))
		}
		prev, curr = curr, prev
	}

	return prev[len(br)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
