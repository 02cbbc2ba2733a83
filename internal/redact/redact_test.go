package redact

import (
	"strings"
	"testing"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email",
			in:   "Reach me at john.doe+jobs@example.com please",
			want: "Reach me at [EMAIL_REDACTED] please",
		},
		{
			name: "phone dashed",
			in:   "Call 555-123-4567 today",
			want: "Call [PHONE_REDACTED] today",
		},
		{
			name: "phone parenthesized with country code",
			in:   "Cell: +1 (555) 123-4567",
			want: "Cell: [PHONE_REDACTED]",
		},
		{
			name: "ssn",
			in:   "SSN 123-45-6789 on file",
			want: "SSN [SSN_REDACTED] on file",
		},
		{
			name: "credit card",
			in:   "card 4111-1111-1111-1111 expires soon",
			want: "card [CARD_REDACTED] expires soon",
		},
		{
			name: "street address",
			in:   "Lives at 123 Main Street since 2019",
			want: "Lives at [ADDRESS_REDACTED] since 2019",
		},
		{
			name: "linkedin profile beats generic website rule",
			in:   "see linkedin.com/in/johndoe",
			want: "see [LINKEDIN_REDACTED]",
		},
		{
			name: "github profile",
			in:   "code at github.com/johndoe",
			want: "code at [GITHUB_REDACTED]",
		},
		{
			name: "personal website",
			in:   "blog: https://johndoe.dev/posts",
			want: "blog: [WEBSITE_REDACTED]",
		},
		{
			name: "multiple kinds in one line",
			in:   "john@example.com or 555-123-4567",
			want: "[EMAIL_REDACTED] or [PHONE_REDACTED]",
		},
		{
			name: "clean text untouched",
			in:   "Senior Go engineer, 8 years of distributed systems.",
			want: "Senior Go engineer, 8 years of distributed systems.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetadata(t *testing.T) {
	m := resume.Metadata{
		Skills: []string{"go", "python"},
		Contact: resume.ContactInfo{
			Email:    "john@example.com",
			Phone:    "555-123-4567",
			LinkedIn: "linkedin.com/in/johndoe",
		},
	}

	got := Metadata(m)

	if got.Contact.Email != EmailPlaceholder {
		t.Errorf("email not masked: %q", got.Contact.Email)
	}
	if got.Contact.Phone != PhonePlaceholder {
		t.Errorf("phone not masked: %q", got.Contact.Phone)
	}
	if got.Contact.LinkedIn != LinkedInPlaceholder {
		t.Errorf("linkedin not masked: %q", got.Contact.LinkedIn)
	}
	if got.Contact.GitHub != "" || got.Contact.Website != "" {
		t.Errorf("absent fields must stay absent, got %+v", got.Contact)
	}
	if len(got.Skills) != 2 {
		t.Errorf("skills must pass through, got %v", got.Skills)
	}
	// Input is untouched.
	if m.Contact.Email != "john@example.com" {
		t.Errorf("input metadata mutated: %q", m.Contact.Email)
	}
}

func newResume(t *testing.T) resume.Resume {
	t.Helper()
	r, err := resume.New(
		"res-1", "alice", "cv.txt", "John Doe, john@example.com, Go engineer.",
		resume.Metadata{Contact: resume.ContactInfo{Email: "john@example.com"}},
		nil, time.Unix(1_700_000_000, 0),
	)
	if err != nil {
		t.Fatalf("new resume: %v", err)
	}
	return r
}

func TestResume_ViewerGetsRedactedView(t *testing.T) {
	r := newResume(t)
	viewer := domain.Principal{OwnerID: "alice", Role: domain.RoleViewer}

	got := Resume(r, viewer)

	if strings.Contains(got.RawText(), "john@example.com") {
		t.Errorf("viewer text leaks PII: %q", got.RawText())
	}
	if got.Metadata().Contact.Email != EmailPlaceholder {
		t.Errorf("viewer metadata leaks PII: %q", got.Metadata().Contact.Email)
	}
	if got.ID() != r.ID() || got.OwnerID() != r.OwnerID() {
		t.Error("redacted view must keep identity fields")
	}
}

func TestResume_RecruiterSeesOriginal(t *testing.T) {
	r := newResume(t)
	recruiter := domain.Principal{OwnerID: "hr", Role: domain.RoleRecruiter}

	got := Resume(r, recruiter)

	if !strings.Contains(got.RawText(), "john@example.com") {
		t.Error("recruiter must see the original text")
	}
	if got.Metadata().Contact.Email != "john@example.com" {
		t.Error("recruiter must see original contact info")
	}
}
