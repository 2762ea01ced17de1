package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyTextFailsValidation(t *testing.T) {
	_, err := Parse("   ", Context{})
	require.Error(t, err)
}

func TestParse_NormalizesCasePunctuationAndWhitespace(t *testing.T) {
	p, err := Parse("  What's   the Cost-Of_Living.Index?? ", Context{})
	require.NoError(t, err)
	assert.Equal(t, "what s the cost-of_living.index", p.NormalizedText)
}

func TestParse_ClassifiesQuestionIntent(t *testing.T) {
	p, err := Parse("How does the pipeline work", Context{})
	require.NoError(t, err)
	assert.Equal(t, IntentQuestion, p.Intent)
}

func TestParse_ClassifiesSearchIntent(t *testing.T) {
	p, err := Parse("find the onboarding document", Context{})
	require.NoError(t, err)
	assert.Equal(t, IntentSearch, p.Intent)
}

func TestParse_ClassifiesGeneralIntent(t *testing.T) {
	p, err := Parse("quarterly revenue summary", Context{})
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, p.Intent)
}

func TestParse_ExtractsQuotedAndCapitalizedEntities(t *testing.T) {
	p, err := Parse(`find "Q3 Revenue Report" from Acme Corp`, Context{})
	require.NoError(t, err)
	assert.Contains(t, p.Entities, "Q3 Revenue Report")
	assert.Contains(t, p.Entities, "Acme Corp")
}

func TestParse_ExcludesQuestionWordsFromEntities(t *testing.T) {
	p, err := Parse("What is the deployment process", Context{})
	require.NoError(t, err)
	assert.NotContains(t, p.Entities, "What")
}

func TestParse_ExtractsDateAndTypeFilters(t *testing.T) {
	p, err := Parse("show records after 2024-01-01 type:report", Context{})
	require.NoError(t, err)
	assert.Contains(t, p.Filters, Filter{Field: "date", Operator: OpGte, Value: "2024-01-01"})
	assert.Contains(t, p.Filters, Filter{Field: "type", Operator: OpEq, Value: "report"})
}

func TestParse_ExtractsBeforeAsLteFilter(t *testing.T) {
	p, err := Parse("show records before 2024-01-01", Context{})
	require.NoError(t, err)
	assert.Contains(t, p.Filters, Filter{Field: "date", Operator: OpLte, Value: "2024-01-01"})
}

func TestParse_ExpandsTermsWithRuleBasedStemming(t *testing.T) {
	p, err := Parse("searching documents processed", Context{})
	require.NoError(t, err)
	assert.Contains(t, p.ExpandedTerms, "search")
	assert.Contains(t, p.ExpandedTerms, "document")
	assert.Contains(t, p.ExpandedTerms, "process")
}

func TestParse_ResolvesSynonymsForKnownEntities(t *testing.T) {
	p, err := Parse(`find "document" guidance`, Context{})
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "paper", "text", "record"}, p.Synonyms["document"])
}

func TestParse_AppliesDomainAndRecencyBoosts(t *testing.T) {
	p, err := Parse("find reports", Context{Domain: "finance", Recency: "recent"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, p.Boosts["finance"])
	assert.Equal(t, 1.2, p.Boosts["recent"])
}

func TestFingerprint_IsStableAndIgnoresBoosts(t *testing.T) {
	a, err := Parse("find reports", Context{Domain: "finance"})
	require.NoError(t, err)
	b, err := Parse("find reports", Context{Domain: "sales"})
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_DiffersOnNormalizedText(t *testing.T) {
	a, err := Parse("find reports", Context{})
	require.NoError(t, err)
	b, err := Parse("find documents", Context{})
	require.NoError(t, err)

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
