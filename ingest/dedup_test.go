package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/model"
)

func authorsOf(names ...string) []model.Author {
	out := make([]model.Author, len(names))
	for i, n := range names {
		out[i] = model.Author{Name: n}
	}
	return out
}

func TestIsDuplicateByExactDOI(t *testing.T) {
	existing := model.Paper{ID: "p1", DOI: "10.1000/xyz", Title: "Attention Is All You Need"}
	dedup := NewDeduplicator([]model.Paper{existing})

	match, dup := dedup.IsDuplicate(model.Paper{DOI: "10.1000/xyz", Title: "A Completely Different Title"})
	require.True(t, dup)
	assert.Equal(t, "p1", match.ID)
}

func TestIsDuplicateByTitleAndAuthorOverlap(t *testing.T) {
	existing := model.Paper{
		ID:      "p2",
		Title:   "Deep Residual Learning for Image Recognition",
		Authors: authorsOf("Kaiming He", "Xiangyu Zhang", "Shaoqing Ren", "Jian Sun"),
	}
	dedup := NewDeduplicator([]model.Paper{existing})

	candidate := model.Paper{
		Title:   "Deep Residual Learning for Image Recognition.",
		Authors: authorsOf("Kaiming He", "Xiangyu Zhang", "Shaoqing Ren"),
	}

	match, dup := dedup.IsDuplicate(candidate)
	require.True(t, dup)
	assert.Equal(t, "p2", match.ID)
}

func TestCheckFlagsNearExactTitleMatchForReview(t *testing.T) {
	existing := model.Paper{ID: "p4", Title: "Scaling Laws For Neural Language Models"}
	dedup := NewDeduplicator([]model.Paper{existing})

	candidate := model.Paper{Title: "Scaling Laws For Neural Language Modelz"}

	verdict := dedup.Check(candidate)
	require.True(t, verdict.IsDuplicate)
	assert.Equal(t, MatchTitle, verdict.MatchType)
	require.GreaterOrEqual(t, verdict.Similarity, 0.95)
	require.Less(t, verdict.Similarity, 1.0)
	assert.True(t, verdict.NeedsReview, "a near-exact (< 1.0) title match must still be flagged for review")
}

func TestCheckDoesNotFlagPerfectTitleMatchForReview(t *testing.T) {
	existing := model.Paper{ID: "p5", Title: "Attention Is All You Need"}
	dedup := NewDeduplicator([]model.Paper{existing})

	verdict := dedup.Check(model.Paper{Title: "Attention Is All You Need"})
	require.True(t, verdict.IsDuplicate)
	assert.Equal(t, 1.0, verdict.Similarity)
	assert.False(t, verdict.NeedsReview)
}

func TestCheckTitleAuthorMatchIsFlaggedForReview(t *testing.T) {
	existing := model.Paper{
		ID:      "p6",
		Title:   "A Survey of Large Language Models",
		Authors: authorsOf("Wayne Zhang", "Ming Li", "Hao Wang"),
	}
	dedup := NewDeduplicator([]model.Paper{existing})

	candidate := model.Paper{
		Title:   "A Survey of Large Language Models v2",
		Authors: authorsOf("Wayne Zhang", "Ming Li", "Hao Wang", "Jun Chen"),
	}

	verdict := dedup.Check(candidate)
	require.True(t, verdict.IsDuplicate)
	assert.Equal(t, MatchTitleAuthor, verdict.MatchType)
	assert.True(t, verdict.NeedsReview, "fuzzy title matches confirmed only by author overlap always need review")
}

func TestCustomThresholdsLowerAuthorMatchRequirement(t *testing.T) {
	existing := model.Paper{
		ID:      "p7",
		Title:   "A Survey of Large Language Models",
		Authors: authorsOf("Wayne Zhang", "Ming Li"),
	}

	candidate := model.Paper{
		Title:   "A Survey of Large Language Models v2",
		Authors: authorsOf("Wayne Zhang", "Ming Li"),
	}

	strict := NewDeduplicator([]model.Paper{existing})
	assert.False(t, strict.Check(candidate).IsDuplicate)

	relaxed := NewDeduplicatorWithThresholds([]model.Paper{existing}, Thresholds{MinAuthorMatches: 2})
	verdict := relaxed.Check(candidate)
	require.True(t, verdict.IsDuplicate)
	assert.Equal(t, MatchTitleAuthor, verdict.MatchType)
}

func TestIsDuplicateRejectsDifferentPapersWithSimilarTitlesButNoAuthorOverlap(t *testing.T) {
	existing := model.Paper{
		ID:      "p3",
		Title:   "Attention Is All You Need",
		Authors: authorsOf("Ashish Vaswani", "Noam Shazeer"),
	}
	dedup := NewDeduplicator([]model.Paper{existing})

	candidate := model.Paper{
		Title:   "Attention Is All You Need For Vision",
		Authors: authorsOf("Someone Else", "Another Author"),
	}

	_, dup := dedup.IsDuplicate(candidate)
	assert.False(t, dup)
}

func TestDeduplicateBatchAccumulatesAcceptedItems(t *testing.T) {
	dedup := NewDeduplicator(nil)

	gpt4 := model.Paper{Title: "GPT-4 Technical Report", Authors: authorsOf("OpenAI")}
	gpt4Dup := model.Paper{Title: "GPT-4 Technical Report", Authors: authorsOf("OpenAI")}
	bert := model.Paper{Title: "BERT: Pre-training of Deep Bidirectional Transformers", Authors: authorsOf("Jacob Devlin")}

	accepted, duplicates := dedup.DeduplicateBatch(context.Background(), []model.Paper{gpt4, gpt4Dup, bert})
	assert.Len(t, accepted, 2)
	assert.Len(t, duplicates, 1)
}

func TestNormalizeTitleCollapsesPunctuationAndCase(t *testing.T) {
	assert.Equal(t, normalizeTitle("Attention Is All You Need"), normalizeTitle("ATTENTION IS ALL YOU NEED."))
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshtein("same", "same"))
	assert.Equal(t, 1, levenshtein("cat", "cats"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
