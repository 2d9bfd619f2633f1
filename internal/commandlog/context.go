package commandlog

import (
	"context"

	"github.com/google/uuid"
)

type eventTrackingIDKey struct{}

type userIDKey struct{}

// WithEventTrackingID stores the correlation id that subsequent log appends record.
func WithEventTrackingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventTrackingIDKey{}, id)
}

// WithUserID stores the acting user recorded with subsequent log appends.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// EventTrackingID returns the correlation id carried by ctx, or a fresh UUIDv7.
func EventTrackingID(ctx context.Context) string {
	if id, ok := ctx.Value(eventTrackingIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.Must(uuid.NewV7()).String()
}

// UserID returns the acting user carried by ctx, if any.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}
