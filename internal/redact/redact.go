// Package redact masks personally identifying information in resume text
// and metadata. Recruiters bypass redaction entirely.
package redact

import (
	"regexp"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

// Placeholders substituted for detected PII.
const (
	EmailPlaceholder    = "[EMAIL_REDACTED]"
	PhonePlaceholder    = "[PHONE_REDACTED]"
	SSNPlaceholder      = "[SSN_REDACTED]"
	CardPlaceholder     = "[CARD_REDACTED]"
	AddressPlaceholder  = "[ADDRESS_REDACTED]"
	LinkedInPlaceholder = "[LINKEDIN_REDACTED]"
	GitHubPlaceholder   = "[GITHUB_REDACTED]"
	WebsitePlaceholder  = "[WEBSITE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules apply in order. Profile URLs are masked before the generic website
// pattern so a LinkedIn link reads [LINKEDIN_REDACTED], not [WEBSITE_REDACTED].
var rules = []rule{
	{regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(?i)(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`), PhonePlaceholder},
	{regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`), SSNPlaceholder},
	{regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), CardPlaceholder},
	{regexp.MustCompile(`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)`), AddressPlaceholder},
	{regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9-]+`), LinkedInPlaceholder},
	{regexp.MustCompile(`(?i)github\.com/[a-zA-Z0-9-]+`), GitHubPlaceholder},
	{regexp.MustCompile(`(?i)https?://(?:www\.)?[a-zA-Z0-9-]+\.[a-zA-Z]{2,}(?:/[^\s]*)?`), WebsitePlaceholder},
}

// Text masks every PII occurrence in s.
func Text(s string) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// Metadata masks the contact fields of extracted metadata. Skills,
// experience and education pass through untouched.
func Metadata(m resume.Metadata) resume.Metadata {
	c := m.Contact
	if c.Email != "" {
		c.Email = EmailPlaceholder
	}
	if c.Phone != "" {
		c.Phone = PhonePlaceholder
	}
	if c.LinkedIn != "" {
		c.LinkedIn = LinkedInPlaceholder
	}
	if c.GitHub != "" {
		c.GitHub = GitHubPlaceholder
	}
	if c.Website != "" {
		c.Website = WebsitePlaceholder
	}
	m.Contact = c
	return m
}

// Resume returns a view of r appropriate for p: recruiters see the
// original, everyone else gets redacted text and metadata.
func Resume(r resume.Resume, p domain.Principal) resume.Resume {
	if p.Elevated() {
		return r
	}
	return r.WithRedacted(Text(r.RawText()), Metadata(r.Metadata()))
}
