package resume

import (
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

type contactDTO struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type metadataDTO struct {
	Skills     []string   `json:"skills,omitempty"`
	Experience []string   `json:"experience,omitempty"`
	Education  []string   `json:"education,omitempty"`
	Contact    contactDTO `json:"contact_info"`
}

type chunkDTO struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Offset    int       `json:"offset"`
}

type resumeDTO struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	OriginalName string      `json:"original_name"`
	RawText      string      `json:"raw_text"`
	Metadata     metadataDTO `json:"metadata"`
	Chunks       []chunkDTO  `json:"chunks"`
	CreatedAt    time.Time   `json:"created_at"`
}

func toDTO(r domres.Resume) resumeDTO {
	m := r.Metadata()
	dto := resumeDTO{
		ID:           r.ID(),
		OwnerID:      r.OwnerID(),
		OriginalName: r.OriginalName(),
		RawText:      r.RawText(),
		Metadata: metadataDTO{
			Skills:     m.Skills,
			Experience: m.Experience,
			Education:  m.Education,
			Contact: contactDTO{
				Email:    m.Contact.Email,
				Phone:    m.Contact.Phone,
				LinkedIn: m.Contact.LinkedIn,
				GitHub:   m.Contact.GitHub,
				Website:  m.Contact.Website,
			},
		},
		CreatedAt: r.CreatedAt(),
	}
	for _, c := range r.Chunks() {
		dto.Chunks = append(dto.Chunks, chunkDTO{
			ID:        c.ID(),
			Text:      c.Text(),
			Embedding: c.Embedding(),
			Offset:    c.Offset(),
		})
	}
	return dto
}

func fromDTO(dto resumeDTO) domres.Resume {
	chunks := make([]chunk.Chunk, 0, len(dto.Chunks))
	for _, c := range dto.Chunks {
		chunks = append(chunks, chunk.Reconstruct(c.ID, dto.ID, dto.OwnerID, c.Text, c.Embedding, c.Offset))
	}
	return domres.Reconstruct(
		dto.ID, dto.OwnerID, dto.OriginalName, dto.RawText,
		domres.Metadata{
			Skills:     dto.Metadata.Skills,
			Experience: dto.Metadata.Experience,
			Education:  dto.Metadata.Education,
			Contact: domres.ContactInfo{
				Email:    dto.Metadata.Contact.Email,
				Phone:    dto.Metadata.Contact.Phone,
				LinkedIn: dto.Metadata.Contact.LinkedIn,
				GitHub:   dto.Metadata.Contact.GitHub,
				Website:  dto.Metadata.Contact.Website,
			},
		},
		chunks, dto.CreatedAt,
	)
}
