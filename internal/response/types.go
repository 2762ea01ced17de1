// Package response filters and deduplicates ranked search candidates,
// synthesizes cited text, and scores the result's confidence and
// coherence.
package response

// CitationStyle selects how source references are rendered into the
// synthesized text.
type CitationStyle string

const (
	CitationInline   CitationStyle = "inline"
	CitationNumbered CitationStyle = "numbered"
	CitationFootnote CitationStyle = "footnote"
)

// Config configures a Generator instance.
type Config struct {
	MaxResponseLength      int
	MinSourcesForSynthesis int
	ConfidenceThreshold    float64
	CitationStyle          CitationStyle
	CoherenceCheckEnabled  bool
	MaxSourcesInResponse   int
}

func (c *Config) applyDefaults() {
	if c.MaxResponseLength == 0 {
		c.MaxResponseLength = 2000
	}
	if c.MinSourcesForSynthesis == 0 {
		c.MinSourcesForSynthesis = 1
	}
	if c.MaxSourcesInResponse == 0 {
		c.MaxSourcesInResponse = 5
	}
	if c.CitationStyle == "" {
		c.CitationStyle = CitationInline
	}
}

// Candidate is one ranked result as it arrives at the Response Generator.
type Candidate struct {
	ID             string
	SourceID       string
	SourceName     string
	Title          string
	URL            string
	Excerpt        string
	RelevanceScore float64
}

// SourceReference is the citation record carried into the final response.
type SourceReference struct {
	Index          int
	ID             string
	SourceID       string
	SourceName     string
	Title          string
	URL            string
	RelevanceScore float64
}

// Result is the synthesized, cited answer to one query.
type Result struct {
	Text       string
	Sources    []SourceReference
	Confidence float64
	Coherence  float64
}
