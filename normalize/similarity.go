package normalize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/opencite/litgraph/llm"
	"github.com/opencite/litgraph/vectorindex"
)

const defaultSimilarityThreshold = 0.8

// Candidate is one scored canonical-name match from the similarity stage.
type Candidate struct {
	Name  string
	Score float64
}

// SimilarityResult carries every candidate at or above the matcher's
// threshold, ranked descending, plus the argmax as Best.
type SimilarityResult struct {
	Candidates []Candidate
	Best       string
	BestScore  float64
}

// SimilarityMatcher resolves a surface form against a set of known
// canonical entity names, either by edit-distance similarity or, when a
// vector index and embedder are configured, by approximate nearest-
// neighbor search over a collection of name embeddings.
type SimilarityMatcher struct {
	threshold  float64
	vectors    vectorindex.Client
	embedder   llm.Embedder
	collection string
	topK       int
}

// SimilarityMatcherConfig configures the matcher's threshold and, if
// using the vector-backed path, the collection to search.
type SimilarityMatcherConfig struct {
	Threshold      float64
	Vectors        vectorindex.Client
	Embedder       llm.Embedder
	VectorCollection string
	TopK           int
}

// NewSimilarityMatcher builds a matcher from cfg; a zero Threshold falls
// back to the documented default of 0.8.
func NewSimilarityMatcher(cfg SimilarityMatcherConfig) *SimilarityMatcher {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &SimilarityMatcher{
		threshold:  threshold,
		vectors:    cfg.Vectors,
		embedder:   cfg.Embedder,
		collection: cfg.VectorCollection,
		topK:       topK,
	}
}

// Match scores input against known, the set of canonical entity names
// already registered, using vector search when configured, otherwise
// normalized edit-distance similarity.
func (m *SimilarityMatcher) Match(ctx context.Context, input string, known []string) (SimilarityResult, error) {
	if m.vectors != nil && m.embedder != nil {
		return m.matchByVector(ctx, input)
	}
	return m.matchByEditDistance(input, known), nil
}

func (m *SimilarityMatcher) matchByVector(ctx context.Context, input string) (SimilarityResult, error) {
	vector, err := m.embedder.Embed(ctx, input)
	if err != nil {
		return SimilarityResult{}, fmt.Errorf("normalize: embedding %q for similarity search: %w", input, err)
	}

	hits, err := m.vectors.Search(ctx, m.collection, vector, m.topK, true)
	if err != nil {
		return SimilarityResult{}, fmt.Errorf("normalize: vector similarity search: %w", err)
	}

	var candidates []Candidate
	for _, hit := range hits {
		score := float64(hit.Score)
		if score < m.threshold {
			continue
		}
		name := hit.Payload["name"]
		if name == "" {
			continue
		}
		candidates = append(candidates, Candidate{Name: name, Score: score})
	}
	return rankCandidates(candidates), nil
}

func (m *SimilarityMatcher) matchByEditDistance(input string, known []string) SimilarityResult {
	normalizedInput := normalizeForCompare(input)

	var candidates []Candidate
	for _, name := range known {
		score := editDistanceSimilarity(normalizedInput, normalizeForCompare(name))
		if score >= m.threshold {
			candidates = append(candidates, Candidate{Name: name, Score: score})
		}
	}
	return rankCandidates(candidates)
}

func rankCandidates(candidates []Candidate) SimilarityResult {
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	result := SimilarityResult{Candidates: candidates}
	if len(candidates) > 0 {
		result.Best = candidates[0].Name
		result.BestScore = candidates[0].Score
	}
	return result
}

func normalizeForCompare(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// editDistanceSimilarity scores a and b in [0, 1] via Levenshtein distance
// relative to the longer string's length, the same formulation the
// deduplicator uses for title comparison.
func editDistanceSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := levenshteinDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
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
