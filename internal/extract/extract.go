// Package extract turns uploaded resume files into plain text and
// structured metadata.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

// skillKeywords are matched case-insensitively as substrings. Order is
// preserved in the extracted skill list.
var skillKeywords = []string{
	"python", "javascript", "java", "react", "node.js", "sql", "aws", "docker",
	"kubernetes", "git", "html", "css", "typescript", "angular", "vue", "django",
	"flask", "fastapi", "postgresql", "mongodb", "redis", "elasticsearch",
	"machine learning", "ai", "data science", "analytics", "project management",
	"agile", "scrum", "leadership", "communication", "problem solving",
}

var (
	experienceSection = regexp.MustCompile(`(?i)(experience|work history|employment|career)`)
	companyPattern    = regexp.MustCompile(`[A-Z][a-zA-Z &]+(?:Inc|Corp|LLC|Ltd|Company|Technologies|Systems)`)
	educationSection  = regexp.MustCompile(`(?i)(education|academic|degree|university|college|bachelor|master|phd)`)
	degreePattern     = regexp.MustCompile(`(?i)(bachelor|master|phd|mba|bs|ms) [a-zA-Z ]+`)

	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern    = regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9-]+`)
	githubPattern   = regexp.MustCompile(`(?i)github\.com/[a-zA-Z0-9-]+`)
	websitePattern  = regexp.MustCompile(`(?i)https?://(?:www\.)?[a-zA-Z0-9-]+\.[a-zA-Z]{2,}(?:/[^\s]*)?`)
)

// Text decodes an uploaded file into plain text. Only plain-text formats
// are accepted.
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md":
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, ext)
	}
	if !utf8.Valid(data) {
		return "", domain.NewValidation("file", "content is not valid UTF-8 text")
	}
	return string(data), nil
}

// Metadata extracts skills, experience, education and contact details from
// resume text with keyword and pattern heuristics.
func Metadata(text string) resume.Metadata {
	return resume.Metadata{
		Skills:     skills(text),
		Experience: experience(text),
		Education:  education(text),
		Contact:    contact(text),
	}
}

func skills(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range skillKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// experience lists up to five company names found after the experience
// heading.
func experience(text string) []string {
	loc := experienceSection.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	section := window(text, loc[1], 1000)
	companies := companyPattern.FindAllString(section, 5)
	for i, c := range companies {
		companies[i] = strings.TrimSpace(c)
	}
	return companies
}

// education lists up to three degree mentions found after the education
// heading.
func education(text string) []string {
	loc := educationSection.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	section := window(text, loc[1], 500)
	degrees := degreePattern.FindAllString(section, 3)
	for i, d := range degrees {
		degrees[i] = strings.TrimSpace(d)
	}
	return degrees
}

func contact(text string) resume.ContactInfo {
	return resume.ContactInfo{
		Email:    emailPattern.FindString(text),
		Phone:    phonePattern.FindString(text),
		LinkedIn: linkedinPattern.FindString(text),
		GitHub:   githubPattern.FindString(text),
		Website:  websitePattern.FindString(text),
	}
}

func window(text string, start, size int) string {
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
