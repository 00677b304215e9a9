package services

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// Authorize reports whether identity owns a resource. Callers surface a
// denial as not-found so existence is never confirmed to non-owners.
func Authorize(identity, resourceOwnerID uuid.UUID) bool {
	return identity != uuid.Nil && identity == resourceOwnerID
}
