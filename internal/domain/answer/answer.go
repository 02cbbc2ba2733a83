// Package answer defines the synthesized answer value objects returned by
// the ask operation.
package answer

// Source attributes part of an answer to one document.
type Source struct {
	documentID string
	similarity float64
	snippets   []string
}

// NewSource creates an answer source.
func NewSource(documentID string, similarity float64, snippets []string) Source {
	return Source{documentID: documentID, similarity: similarity, snippets: snippets}
}

// DocumentID returns the source document identifier.
func (s *Source) DocumentID() string { return s.documentID }

// Similarity returns the best chunk similarity for this document.
func (s *Source) Similarity() float64 { return s.similarity }

// Snippets returns the supporting snippets, highest similarity first.
func (s *Source) Snippets() []string { return s.snippets }

// WithSnippets returns a copy with the snippets replaced (redaction).
func (s *Source) WithSnippets(snippets []string) Source {
	out := *s
	out.snippets = snippets
	return out
}

// Answer is a deterministic extractive synthesis over retrieved evidence.
// Every sentence of the text is traceable to a snippet in the sources.
type Answer struct {
	text    string
	sources []Source
}

// New creates an answer.
func New(text string, sources []Source) Answer {
	return Answer{text: text, sources: sources}
}

// Text returns the synthesized answer text.
func (a *Answer) Text() string { return a.text }

// Sources returns the supporting sources, best document first.
func (a *Answer) Sources() []Source { return a.sources }

// WithText returns a copy with the text replaced (redaction).
func (a *Answer) WithText(text string) Answer {
	out := *a
	out.text = text
	return out
}

// WithSources returns a copy with the sources replaced (redaction).
func (a *Answer) WithSources(sources []Source) Answer {
	out := *a
	out.sources = sources
	return out
}
