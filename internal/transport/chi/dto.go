package chi

import (
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/answer"
	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
	dommatch "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/match"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

// Error envelope codes.
const (
	codeBadRequest          = "BAD_REQUEST"
	codeFieldRequired       = "FIELD_REQUIRED"
	codeNotFound            = "NOT_FOUND"
	codeRateLimit           = "RATE_LIMIT"
	codeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	codeFileTooLarge        = "FILE_TOO_LARGE"
	codeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	codeEmbeddingProvider   = "EMBEDDING_PROVIDER_ERROR"
	codeUnauthorized        = "UNAUTHORIZED"
	codeInternalError       = "INTERNAL_ERROR"
)

type errorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type contactInfoResponse struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type metadataResponse struct {
	Skills     []string            `json:"skills"`
	Experience []string            `json:"experience"`
	Education  []string            `json:"education"`
	Contact    contactInfoResponse `json:"contact_info"`
}

type resumeResponse struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	OriginalName string           `json:"original_name"`
	Text         string           `json:"text"`
	Metadata     metadataResponse `json:"metadata"`
	ChunkCount   int              `json:"chunk_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

type resumeListResponse struct {
	Items      []resumeResponse `json:"items"`
	NextOffset *int             `json:"next_offset,omitempty"`
	Total      int              `json:"total"`
}

type createJobRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

type jobResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"`
}

type jobListResponse struct {
	Items      []jobResponse `json:"items"`
	NextOffset *int          `json:"next_offset,omitempty"`
	Total      int           `json:"total"`
}

type askRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type sourceResponse struct {
	DocumentID string   `json:"document_id"`
	Similarity float64  `json:"similarity"`
	Snippets   []string `json:"snippets"`
}

type askResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
}

type matchRequest struct {
	TopN *int `json:"top_n"`
}

type evidenceResponse struct {
	Requirement string  `json:"requirement"`
	Snippet     string  `json:"snippet"`
	Similarity  float64 `json:"similarity"`
}

type matchResultResponse struct {
	DocumentID          string             `json:"document_id"`
	Score               float64            `json:"score"`
	Evidence            []evidenceResponse `json:"evidence"`
	MissingRequirements []string           `json:"missing_requirements"`
}

type matchListResponse struct {
	Matches []matchResultResponse `json:"matches"`
}

type healthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	IndexedChunks int               `json:"indexed_chunks"`
}

func resumeToResponse(r *domres.Resume) resumeResponse {
	m := r.Metadata()
	return resumeResponse{
		ID:           r.ID(),
		OwnerID:      r.OwnerID(),
		OriginalName: r.OriginalName(),
		Text:         r.RawText(),
		Metadata: metadataResponse{
			Skills:     emptyIfNil(m.Skills),
			Experience: emptyIfNil(m.Experience),
			Education:  emptyIfNil(m.Education),
			Contact: contactInfoResponse{
				Email:    m.Contact.Email,
				Phone:    m.Contact.Phone,
				LinkedIn: m.Contact.LinkedIn,
				GitHub:   m.Contact.GitHub,
				Website:  m.Contact.Website,
			},
		},
		ChunkCount: len(r.Chunks()),
		CreatedAt:  r.CreatedAt(),
	}
}

func jobToResponse(j *domjob.Job) jobResponse {
	return jobResponse{
		ID:           j.ID(),
		Title:        j.Title(),
		Description:  j.Description(),
		Requirements: emptyIfNil(j.Requirements()),
		CreatedAt:    j.CreatedAt(),
	}
}

func answerToResponse(a *answer.Answer) askResponse {
	sources := a.Sources()
	items := make([]sourceResponse, len(sources))
	for i := range sources {
		items[i] = sourceResponse{
			DocumentID: sources[i].DocumentID(),
			Similarity: sources[i].Similarity(),
			Snippets:   emptyIfNil(sources[i].Snippets()),
		}
	}
	return askResponse{Answer: a.Text(), Sources: items}
}

func matchResultToResponse(r *dommatch.Result) matchResultResponse {
	evidence := r.Evidence()
	items := make([]evidenceResponse, len(evidence))
	for i := range evidence {
		items[i] = evidenceResponse{
			Requirement: evidence[i].Requirement(),
			Snippet:     evidence[i].Snippet(),
			Similarity:  evidence[i].Similarity(),
		}
	}
	return matchResultResponse{
		DocumentID:          r.DocumentID(),
		Score:               r.Score(),
		Evidence:            items,
		MissingRequirements: emptyIfNil(r.MissingRequirements()),
	}
}

// emptyIfNil keeps list fields serialized as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
