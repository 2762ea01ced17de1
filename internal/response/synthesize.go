package response

import "strings"

const noInformationFound = "I don't have enough information to answer this query."

// synthesize builds the raw (pre-citation, pre-truncation) response body
// from the chosen sources.
func synthesize(sources []Candidate) string {
	switch len(sources) {
	case 0:
		return noInformationFound
	case 1:
		return "Based on the available information: " + strings.TrimSpace(sources[0].Excerpt)
	default:
		excerpts := sources
		if len(excerpts) > 3 {
			excerpts = excerpts[:3]
		}
		parts := make([]string, len(excerpts))
		for i, c := range excerpts {
			parts[i] = strings.TrimSpace(c.Excerpt)
		}
		return "Based on multiple sources: " + strings.Join(parts, " Additionally, ")
	}
}
