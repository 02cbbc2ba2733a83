// Package match defines the derived match result value objects. Results are
// recomputed per request and never persisted.
package match

// Evidence pairs a satisfied requirement with its best supporting snippet.
type Evidence struct {
	requirement string
	snippet     string
	similarity  float64
}

// NewEvidence creates an evidence entry.
func NewEvidence(requirement, snippet string, similarity float64) Evidence {
	return Evidence{requirement: requirement, snippet: snippet, similarity: similarity}
}

// Requirement returns the matched requirement string.
func (e *Evidence) Requirement() string { return e.requirement }

// Snippet returns the supporting text snippet.
func (e *Evidence) Snippet() string { return e.snippet }

// Similarity returns the supporting similarity score.
func (e *Evidence) Similarity() float64 { return e.similarity }

// WithSnippet returns a copy with the snippet replaced (redaction).
func (e *Evidence) WithSnippet(s string) Evidence {
	out := *e
	out.snippet = s
	return out
}

// Result scores one document against one job. Evidence and missing
// requirements form a strict partition of the job's requirement list.
type Result struct {
	jobID      string
	documentID string
	score      float64
	evidence   []Evidence
	missing    []string
}

// NewResult creates a match result.
func NewResult(jobID, documentID string, score float64, evidence []Evidence, missing []string) Result {
	return Result{jobID: jobID, documentID: documentID, score: score, evidence: evidence, missing: missing}
}

// JobID returns the job identifier.
func (r *Result) JobID() string { return r.jobID }

// DocumentID returns the candidate document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// Score returns the blended coverage/confidence score in [0,1].
func (r *Result) Score() float64 { return r.score }

// Evidence returns evidence entries in job requirement order.
func (r *Result) Evidence() []Evidence { return r.evidence }

// MissingRequirements returns the unmatched requirements in job requirement order.
func (r *Result) MissingRequirements() []string { return r.missing }

// WithEvidence returns a copy with the evidence list replaced (redaction).
func (r *Result) WithEvidence(ev []Evidence) Result {
	out := *r
	out.evidence = ev
	return out
}
