package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portal/internal/auth"
	"portal/internal/domain/accesscontrol"
)

// RoleLookup is the elevated read of a user's role row.
type RoleLookup interface {
	GetAssignment(ctx context.Context, userID uuid.UUID) (*accesscontrol.Assignment, error)
}

type Resolver struct {
	sessions auth.Verifier
	roles    RoleLookup
	logger   *zap.SugaredLogger
}

func NewResolver(sessions auth.Verifier, roles RoleLookup, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{sessions: sessions, roles: roles, logger: logger}
}

// Resolve never returns an error: role lookup failures are logged and
// reported as Unassigned.
func (r *Resolver) Resolve(ctx context.Context, token string) Identity {
	session, err := r.sessions.Verify(token)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			r.logger.Debugw("session rejected", "error", err)
		}
		return Anonymous{}
	}

	user := User{ID: session.UserID, Email: session.Email}

	assignment, err := r.roles.GetAssignment(ctx, session.UserID)
	switch {
	case errors.Is(err, accesscontrol.ErrNotFound):
		return Unassigned{User: user}
	case err != nil:
		r.logger.Errorw("role lookup failed", "user_id", session.UserID, "error", err)
		return Unassigned{User: user}
	case assignment == nil:
		return Unassigned{User: user}
	}

	return Assigned{User: user, Assignment: *assignment}
}
