package response

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragmesh/querycore/internal/observability"
)

func TestGenerateNoSourcesReturnsCannedApology(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.5}, observability.NewNopLogger())
	result := g.Generate(nil)

	assert.Equal(t, noInformationFound, result.Text)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Sources)
}

func TestGenerateFiltersBelowThreshold(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.6}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", RelevanceScore: 0.4, Excerpt: "low relevance excerpt text here."},
	})
	assert.Empty(t, result.Sources)
}

func TestGenerateSingleSource(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.3, CitationStyle: CitationInline}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", SourceID: "s1", RelevanceScore: 0.9, Excerpt: "Go channels coordinate goroutines safely."},
	})

	require.Len(t, result.Sources, 1)
	assert.Contains(t, result.Text, "Based on the available information")
	assert.Contains(t, result.Text, "[1]")
	assert.Greater(t, result.Confidence, 0.0)
}

func TestGenerateManySourcesJoinsUpToThree(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.1, MaxSourcesInResponse: 10}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", RelevanceScore: 0.9, Excerpt: "First distinct excerpt about caching strategies."},
		{ID: "b", RelevanceScore: 0.8, Excerpt: "Second distinct excerpt about vector search internals."},
		{ID: "c", RelevanceScore: 0.7, Excerpt: "Third distinct excerpt about response synthesis design."},
		{ID: "d", RelevanceScore: 0.6, Excerpt: "Fourth distinct excerpt that should not appear in the body."},
	})

	assert.Contains(t, result.Text, "Based on multiple sources")
	assert.Contains(t, result.Text, "Additionally,")
	assert.NotContains(t, result.Text, "Fourth distinct excerpt")
	require.Len(t, result.Sources, 4, "all kept candidates are cited even if only three feed the body")
}

func TestGenerateDeduplicatesNearIdenticalExcerpts(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.1}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", RelevanceScore: 0.9, Excerpt: "the quick brown fox jumps over the lazy dog"},
		{ID: "b", RelevanceScore: 0.85, Excerpt: "the quick brown fox jumps over the lazy dog today"},
	})
	assert.Len(t, result.Sources, 1, "near-duplicate excerpt should be dropped")
}

func TestGenerateTruncatesLongResponseAtSentenceBoundary(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.1, MaxResponseLength: 60}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", RelevanceScore: 0.9, Excerpt: "This is sentence one. This is sentence two that is longer. This trailing sentence should be cut."},
	})
	assert.LessOrEqual(t, len(result.Text), 80)
}

func TestGenerateNumberedStyleAppendsSourcesBlock(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.1, CitationStyle: CitationNumbered}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", SourceID: "s1", SourceName: "docs", Title: "Intro", URL: "https://example.com", RelevanceScore: 0.9, Excerpt: "Some excerpt text."},
	})
	assert.Contains(t, result.Text, "Sources:")
	assert.Contains(t, result.Text, "docs - Intro (https://example.com)")
}

func TestGenerateFootnoteStyleAppendsSeparator(t *testing.T) {
	g := NewGenerator(Config{ConfidenceThreshold: 0.1, CitationStyle: CitationFootnote}, observability.NewNopLogger())
	result := g.Generate([]Candidate{
		{ID: "a", SourceID: "s1", SourceName: "docs", Title: "Intro", RelevanceScore: 0.9, Excerpt: "Some excerpt text."},
	})
	assert.Contains(t, result.Text, "---")
}

func TestConfidenceScorePenalizesShortExcerptsAndLowMean(t *testing.T) {
	high := confidenceScore([]Candidate{{RelevanceScore: 0.9, Excerpt: strings.Repeat("word ", 40)}}, "")
	low := confidenceScore([]Candidate{{RelevanceScore: 0.3, Excerpt: "short"}}, "")
	assert.Greater(t, high, low)
}

func TestCoherenceScoreRewardsTransitionWordsAndMultipleSources(t *testing.T) {
	base := coherenceScore("Short.", 1)
	enriched := coherenceScore(strings.Repeat("a", 40)+". However, this follows logically.", 2)
	assert.Greater(t, enriched, base)
}

func TestJaccardSimilarity(t *testing.T) {
	a := wordSet("the quick brown fox")
	b := wordSet("the quick brown fox")
	assert.Equal(t, 1.0, jaccard(a, b))

	c := wordSet("completely different words here")
	assert.Equal(t, 0.0, jaccard(a, c))
}
