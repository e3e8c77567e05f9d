package app

import (
	"context"
	"errors"

	"github.com/khrees2412/mockly/internal/interview"
)

// ErrNotInitialized is returned when a command runs without the App installed by the root command
var ErrNotInitialized = errors.New("application not initialized")

type appKey struct{}

// WithApp returns a child context carrying a, for the command that runs next
func WithApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// FromContext returns the App stored by WithApp
func FromContext(ctx context.Context) (*App, bool) {
	a, ok := ctx.Value(appKey{}).(*App)
	return a, ok && a != nil
}

// EngineFromContext returns the interview engine of the App stored in ctx
func EngineFromContext(ctx context.Context) (*interview.Engine, error) {
	a, ok := FromContext(ctx)
	if !ok || a.Engine == nil {
		return nil, ErrNotInitialized
	}
	return a.Engine, nil
}
