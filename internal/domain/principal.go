package domain

import "context"

// Role is the visibility level of an authenticated caller.
type Role string

const (
	// RoleViewer sees only its own documents, with PII redacted.
	RoleViewer Role = "viewer"
	// RoleRecruiter sees all documents, unredacted.
	RoleRecruiter Role = "recruiter"
)

// Principal identifies the authenticated caller of a request.
type Principal struct {
	OwnerID string
	Role    Role
}

// Elevated reports whether the principal bypasses redaction and owner scoping.
func (p Principal) Elevated() bool { return p.Role == RoleRecruiter }

type principalKey struct{}

// ContextWithPrincipal stores the request principal in the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the request principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
