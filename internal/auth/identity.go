package auth

import (
	"context"

	"github.com/capitalize-ai/coursechat/internal/model"
)

type identityKey struct{}

// Identity is the authenticated user of a request.
type Identity struct {
	model.User
}

// IsProfessor reports whether the identity may manage courses.
func (i Identity) IsProfessor() bool {
	return i.Role == model.RoleProfessor
}

// IsStudent reports whether the identity is a student.
func (i Identity) IsStudent() bool {
	return i.Role == model.RoleStudent
}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, identityKey{}, Identity{User: user})
}

// FromContext returns the identity attached to ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
