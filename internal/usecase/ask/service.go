// Package ask implements retrieval-augmented question answering over
// indexed resumes.
package ask

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/answer"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/index"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/redact"
)

// Defaults and caps.
const (
	DefaultK          = 5
	MaxK              = 50
	MaxSnippetsPerDoc = 3

	// NoAnswerText is returned when no chunk clears the similarity floor.
	NoAnswerText = "No relevant information was found in the indexed documents."
)

// Config tunes answer synthesis.
type Config struct {
	SimilarityFloor float64 // hits below this never reach the answer
	AnswerMaxLen    int     // length cap on composed answer text
}

func (c *Config) applyDefaults() {
	if c.SimilarityFloor <= 0 {
		c.SimilarityFloor = 0.2
	}
	if c.AnswerMaxLen <= 0 {
		c.AnswerMaxLen = 600
	}
}

// Service answers free-text questions from indexed chunks.
type Service struct {
	idx      Searcher
	embed    Embedder
	composer Composer
	cfg      Config
	logger   *zap.Logger
}

// New creates an ask service. A nil composer falls back to the extractive
// composer.
func New(idx Searcher, embed Embedder, composer Composer, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	if composer == nil {
		composer = NewExtractiveComposer(cfg.AnswerMaxLen)
	}
	return &Service{idx: idx, embed: embed, composer: composer, cfg: cfg, logger: logger}
}

// Ask embeds the query, retrieves the top-k chunks visible to p, and
// synthesizes an extractive answer with per-document sources.
func (s *Service) Ask(ctx context.Context, p domain.Principal, query string, k int) (answer.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return answer.Answer{}, domain.NewValidation("query", "query is required")
	}
	if k < 0 {
		return answer.Answer{}, domain.NewValidation("k", "k must be positive")
	}
	if k == 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.idx.Search(embResult.Embedding, k, index.FilterFor(p))
	if err != nil {
		return answer.Answer{}, fmt.Errorf("search: %w", err)
	}

	sources := s.buildSources(hits)
	if len(sources) == 0 {
		return answer.New(NoAnswerText, nil), nil
	}

	text := s.composer.Compose(query, sources)
	s.logger.Debug("Question answered",
		zap.Int("hits", len(hits)),
		zap.Int("sources", len(sources)),
	)

	ans := answer.New(text, sources)
	if !p.Elevated() {
		ans = redactAnswer(ans)
	}
	return ans, nil
}

// redactAnswer masks PII in the answer text and every snippet. The index
// holds original text, so redaction happens on this read-time copy.
func redactAnswer(a answer.Answer) answer.Answer {
	sources := a.Sources()
	out := make([]answer.Source, len(sources))
	for i := range sources {
		snippets := make([]string, len(sources[i].Snippets()))
		for j, snip := range sources[i].Snippets() {
			snippets[j] = redact.Text(snip)
		}
		out[i] = sources[i].WithSnippets(snippets)
	}
	redacted := a.WithText(redact.Text(a.Text()))
	return redacted.WithSources(out)
}

// buildSources groups floor-clearing hits by document. Hits arrive ordered
// by descending similarity, so the first hit per document carries its best
// similarity and snippets accumulate highest first.
func (s *Service) buildSources(hits []index.Hit) []answer.Source {
	type group struct {
		best     float64
		snippets []string
	}
	byDoc := make(map[string]*group)
	var order []string

	for i := range hits {
		if hits[i].Similarity() < s.cfg.SimilarityFloor {
			continue
		}
		c := hits[i].Chunk()
		g, ok := byDoc[c.DocumentID()]
		if !ok {
			g = &group{best: hits[i].Similarity()}
			byDoc[c.DocumentID()] = g
			order = append(order, c.DocumentID())
		}
		if len(g.snippets) < MaxSnippetsPerDoc {
			g.snippets = append(g.snippets, c.Text())
		}
	}

	sources := make([]answer.Source, 0, len(order))
	for _, docID := range order {
		g := byDoc[docID]
		sources = append(sources, answer.NewSource(docID, g.best, g.snippets))
	}
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Similarity() != sources[j].Similarity() {
			return sources[i].Similarity() > sources[j].Similarity()
		}
		return sources[i].DocumentID() < sources[j].DocumentID()
	})
	return sources
}

// ExtractiveComposer concatenates source snippets verbatim up to a length
// cap. Purely extractive: the output contains nothing that is not in the
// sources.
type ExtractiveComposer struct {
	maxLen int
}

// NewExtractiveComposer creates the default composer.
func NewExtractiveComposer(maxLen int) *ExtractiveComposer {
	if maxLen <= 0 {
		maxLen = 600
	}
	return &ExtractiveComposer{maxLen: maxLen}
}

// Compose joins snippets in source order until the cap is reached.
func (c *ExtractiveComposer) Compose(_ string, sources []answer.Source) string {
	var b strings.Builder
	for _, src := range sources {
		for _, snip := range src.Snippets() {
			if b.Len() > 0 {
				if b.Len()+len(snip)+1 > c.maxLen {
					return b.String()
				}
				b.WriteByte(' ')
			} else if len(snip) > c.maxLen {
				return string([]rune(snip)[:c.maxLen])
			}
			b.WriteString(snip)
		}
	}
	return b.String()
}
