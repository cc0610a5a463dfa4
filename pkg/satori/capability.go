package satori

import "context"

// Core is the minimal handle into the dispatch core that SDK and App
// implementations receive for the lifetime of their Start call — the Go
// analogue of the Rust trait methods taking `s: &Arc<Satori<S, A>>`. It
// is declared here (not in internal/dispatch) so satori.SDK/satori.App
// can reference it without an import cycle; internal/dispatch.Core
// satisfies it.
type Core interface {
	// HandleEvent routes an event to the App side.
	HandleEvent(ctx context.Context, event Event)
	// Stopped resolves once the core's shutdown signal has been raised.
	Stopped() <-chan struct{}
}

// SDK is the capability contract an upstream adapter must implement: it
// produces events and executes API calls on behalf of one or more bots.
type SDK interface {
	// Start runs the adapter's connection lifecycle until core.Stopped()
	// fires or the upstream connection ends.
	Start(ctx context.Context, core Core) error
	// CallAPI executes payload against bot, or fails with ErrInvalidBot
	// if this adapter does not own bot. Errors are always *Error (use
	// FromAPIError to lift a request-level *APIError), never a bare
	// *APIError, so callers can uniformly type-assert at the boundary.
	CallAPI(ctx context.Context, core Core, bot BotId, payload RawApiCall) (any, error)
	// HasBot reports whether this adapter currently owns bot.
	HasBot(ctx context.Context, bot BotId) bool
	// GetLogins lists the bots this adapter currently knows about.
	GetLogins(ctx context.Context) []Login
}

// App is the capability contract a downstream consumer must implement: it
// receives events and may call back into the core to execute API calls.
type App interface {
	// Start runs the app's lifecycle until core.Stopped() fires.
	Start(ctx context.Context, core Core) error
	// HandleEvent delivers a single event to the app.
	HandleEvent(ctx context.Context, core Core, event Event)
}
