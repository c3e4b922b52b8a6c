package appcore

import (
	"context"
	"errors"

	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Context keys
type contextKey string

const (
	userIDKey        contextKey = "userID"
	correlationIDKey contextKey = "correlationID"
	causationIDKey   contextKey = "causationID"
)

var (
	ErrUserIDNotFound        = errors.New("user ID not found in context")
	ErrCorrelationIDNotFound = errors.New("correlation ID not found in context")
)

// GetUserID extracts the user ID from the context
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return "", ErrUserIDNotFound
	}
	return userID, nil
}

// WithUserID adds the user ID to the context
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetCorrelationID extracts the correlation ID from the context
func GetCorrelationID(ctx context.Context) (string, error) {
	correlationID, ok := ctx.Value(correlationIDKey).(string)
	if !ok || correlationID == "" {
		return "", ErrCorrelationIDNotFound
	}
	return correlationID, nil
}

// WithCorrelationID adds the correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// GetCausationID returns the ID of the message that caused the current one, if any.
func GetCausationID(ctx context.Context) string {
	causationID, _ := ctx.Value(causationIDKey).(string)
	return causationID
}

// WithCausationID marks the current work as caused by another message,
// typically the event a subscriber is reacting to.
func WithCausationID(ctx context.Context, causationID string) context.Context {
	return context.WithValue(ctx, causationIDKey, causationID)
}

// EnsureCorrelationID returns ctx unchanged when it already carries a
// correlation ID, otherwise a child context with a fresh one.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id, err := GetCorrelationID(ctx); err == nil {
		return ctx, id
	}
	id := uuid.NewUUID().String()
	return WithCorrelationID(ctx, id), id
}

// EventMetadata builds event metadata from the identifiers carried by ctx.
// A missing correlation ID is replaced by a new one so every event can be
// traced back to a single request.
func EventMetadata(ctx context.Context) event.Metadata {
	var userID string
	if id, err := GetUserID(ctx); err == nil {
		userID = id.String()
	}

	_, correlationID := EnsureCorrelationID(ctx)

	return event.NewMetadata(userID, correlationID, GetCausationID(ctx))
}
