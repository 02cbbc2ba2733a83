// Package match scores candidate resumes against a job's requirements.
package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	dommatch "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/match"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/redact"
)

// Matching constants.
const (
	// evidenceK bounds the per-requirement document search.
	evidenceK = 3
	// snippetContext is how many bytes around a lexical match are kept.
	snippetContext = 100
)

// Config tunes the scorer.
type Config struct {
	RequirementThreshold float64 // minimum similarity for vector evidence
	CoverageWeight       float64 // weight of coverage vs mean similarity
}

func (c *Config) applyDefaults() {
	if c.RequirementThreshold <= 0 {
		c.RequirementThreshold = 0.35
	}
	if c.CoverageWeight <= 0 || c.CoverageWeight > 1 {
		c.CoverageWeight = 0.5
	}
}

// Service ranks candidate resumes for a job.
type Service struct {
	jobs   JobReader
	repo   CandidateLister
	idx    DocSearcher
	embed  Embedder
	cfg    Config
	logger *zap.Logger
}

// New creates a match service.
func New(jobs JobReader, repo CandidateLister, idx DocSearcher, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{jobs: jobs, repo: repo, idx: idx, embed: embed, cfg: cfg, logger: logger}
}

// Match scores every resume visible to p against the job's requirements
// and returns at most topN results, best first. Each requirement is
// embedded once and reused across candidates.
func (s *Service) Match(ctx context.Context, p domain.Principal, jobID string, topN int) ([]dommatch.Result, error) {
	if topN <= 0 {
		return nil, domain.NewValidation("top_n", "top_n must be positive")
	}

	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ownerID := p.OwnerID
	if p.Elevated() {
		ownerID = ""
	}
	candidates, _, err := s.repo.List(ctx, ownerID, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []dommatch.Result{}, nil
	}

	reqs := j.Requirements()
	reqVecs := make([][]float32, len(reqs))
	for i, req := range reqs {
		embResult, err := s.embed.Embed(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("embed requirement %q: %w", req, err)
		}
		reqVecs[i] = embResult.Embedding
	}

	results := make([]dommatch.Result, 0, len(candidates))
	for i := range candidates {
		res, err := s.scoreCandidate(jobID, &candidates[i], reqs, reqVecs)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].DocumentID() < results[j].DocumentID()
	})
	if len(results) > topN {
		results = results[:topN]
	}

	if !p.Elevated() {
		for i := range results {
			results[i] = redactResult(results[i])
		}
	}

	s.logger.Debug("Job matched",
		zap.String("job_id", jobID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

// scoreCandidate partitions the requirement list into evidence and missing
// for one resume and blends coverage with mean matched similarity.
func (s *Service) scoreCandidate(
	jobID string, res *domres.Resume, reqs []string, reqVecs [][]float32,
) (dommatch.Result, error) {
	var evidence []dommatch.Evidence
	var missing []string

	for i, req := range reqs {
		hits, err := s.idx.SearchDocument(res.ID(), reqVecs[i], evidenceK)
		if err != nil {
			return dommatch.Result{}, fmt.Errorf("search document %s: %w", res.ID(), err)
		}

		bestSim := 0.0
		bestText := ""
		if len(hits) > 0 {
			bestSim = hits[0].Similarity()
			c := hits[0].Chunk()
			bestText = c.Text()
		}

		switch {
		case bestSim >= s.cfg.RequirementThreshold:
			evidence = append(evidence, dommatch.NewEvidence(req, bestText, bestSim))
		case lexicalMatch(res.RawText(), req):
			// A literal mention still counts; it carries the best vector
			// similarity seen for this requirement, which is below threshold.
			snippet := lexicalSnippet(res.RawText(), req)
			evidence = append(evidence, dommatch.NewEvidence(req, snippet, bestSim))
		default:
			missing = append(missing, req)
		}
	}

	score := s.score(len(evidence), len(reqs), evidence)
	return dommatch.NewResult(jobID, res.ID(), score, evidence, missing), nil
}

func (s *Service) score(matched, total int, evidence []dommatch.Evidence) float64 {
	if total == 0 {
		return 0
	}
	coverage := float64(matched) / float64(total)

	meanSim := 0.0
	if len(evidence) > 0 {
		for i := range evidence {
			meanSim += evidence[i].Similarity()
		}
		meanSim /= float64(len(evidence))
	}

	alpha := s.cfg.CoverageWeight
	return alpha*coverage + (1-alpha)*meanSim
}

func lexicalMatch(text, req string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(req))
}

// lexicalSnippet returns the match with surrounding context, whitespace
// collapsed to single spaces.
func lexicalSnippet(text, req string) string {
	pos := strings.Index(strings.ToLower(text), strings.ToLower(req))
	if pos < 0 {
		return ""
	}
	start := pos - snippetContext
	if start < 0 {
		start = 0
	}
	end := pos + len(req) + snippetContext
	if end > len(text) {
		end = len(text)
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

func redactResult(r dommatch.Result) dommatch.Result {
	evidence := r.Evidence()
	out := make([]dommatch.Evidence, len(evidence))
	for i := range evidence {
		out[i] = evidence[i].WithSnippet(redact.Text(evidence[i].Snippet()))
	}
	return r.WithEvidence(out)
}
