package logging

import (
	"context"

	"go.uber.org/zap"
)

type sessionCtxKey struct{}
type actionCtxKey struct{}

// WithSessionID adds a design session id to ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// SessionIDFromContext extracts the session id from ctx.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithAction adds the workflow action name to ctx.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionCtxKey{}, action)
}

// ActionFromContext extracts the workflow action from ctx.
func ActionFromContext(ctx context.Context) string {
	if a, ok := ctx.Value(actionCtxKey{}).(string); ok {
		return a
	}
	return ""
}

// ContextFields extracts correlation data from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 2)
	if id := SessionIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("session.id", id))
	}
	if action := ActionFromContext(ctx); action != "" {
		fields = append(fields, zap.String("workflow.action", action))
	}
	return fields
}
