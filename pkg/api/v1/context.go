package v1

import (
	"context"

	"github.com/google/uuid"
)

// subjectContextKey is the key under which the bearer token's credential
// subject is stored in the request context, grounded on the teacher's
// ClaimsContextKey idiom (an empty struct type avoids collisions with
// context keys defined by other packages).
type subjectContextKey struct{}

func withSubject(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, id)
}

// SubjectFromContext retrieves the authenticated credential's id, set by
// RequireBearer.
func SubjectFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(subjectContextKey{}).(uuid.UUID)
	return id, ok
}
