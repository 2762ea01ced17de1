package response

import (
	"fmt"
	"strings"
)

// applyCitations weaves inline markers into the synthesized text after each
// sentence terminator, one source at a time, until sources are exhausted;
// numbered/footnote styles additionally append a references block.
func applyCitations(text string, sources []SourceReference, style CitationStyle) string {
	cited := inlineCitations(text, sources)

	switch style {
	case CitationNumbered:
		return cited + "\n\nSources:\n" + referenceBlock(sources)
	case CitationFootnote:
		return cited + "\n\n---\n" + referenceBlock(sources)
	default:
		return cited
	}
}

func inlineCitations(text string, sources []SourceReference) string {
	if len(sources) == 0 {
		return text
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return text
	}

	var b strings.Builder
	for i, sentence := range sentences {
		b.WriteString(sentence)
		if i < len(sources) {
			fmt.Fprintf(&b, " [%d]", sources[i].Index)
		}
	}
	return b.String()
}

func referenceBlock(sources []SourceReference) string {
	lines := make([]string, len(sources))
	for i, s := range sources {
		label := s.SourceName
		if label == "" {
			label = s.SourceID
		}
		if s.URL != "" {
			lines[i] = fmt.Sprintf("[%d] %s - %s (%s)", s.Index, label, s.Title, s.URL)
		} else {
			lines[i] = fmt.Sprintf("[%d] %s - %s", s.Index, label, s.Title)
		}
	}
	return strings.Join(lines, "\n")
}
