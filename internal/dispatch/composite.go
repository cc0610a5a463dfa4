package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

// SDKs is a composite satori.SDK over a fixed slice of adapters, the Go
// analogue of original_source/src/impls/tuple.rs's SdkT tuple impls.
// CallAPI/HasBot resolve by first match in slice order; Start and
// GetLogins fan out to every member.
type SDKs []satori.SDK

// Start runs every member's Start concurrently via errgroup, the
// equivalent of the Rust impl's tokio::join! over the tuple.
func (s SDKs) Start(ctx context.Context, core satori.Core) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sdk := range s {
		sdk := sdk
		g.Go(func() error { return sdk.Start(gctx, core) })
	}
	return g.Wait()
}

// CallAPI dispatches to the first member that owns bot.
func (s SDKs) CallAPI(ctx context.Context, core satori.Core, bot satori.BotId, payload satori.RawApiCall) (any, error) {
	for _, sdk := range s {
		if sdk.HasBot(ctx, bot) {
			return sdk.CallAPI(ctx, core, bot, payload)
		}
	}
	return nil, satori.ErrInvalidBot()
}

// HasBot reports whether any member owns bot.
func (s SDKs) HasBot(ctx context.Context, bot satori.BotId) bool {
	for _, sdk := range s {
		if sdk.HasBot(ctx, bot) {
			return true
		}
	}
	return false
}

// GetLogins queries every member concurrently and concatenates their
// logins in slice order.
func (s SDKs) GetLogins(ctx context.Context) []satori.Login {
	parts := make([][]satori.Login, len(s))
	var g errgroup.Group
	for i, sdk := range s {
		i, sdk := i, sdk
		g.Go(func() error {
			parts[i] = sdk.GetLogins(ctx)
			return nil
		})
	}
	_ = g.Wait()
	var out []satori.Login
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Apps is a composite satori.App over a fixed slice of consumers: every
// event is fanned out to every member, the Go analogue of AppT's tuple
// impl in original_source/src/impls/tuple.rs.
type Apps []satori.App

// Start runs every member's Start concurrently via errgroup.
func (a Apps) Start(ctx context.Context, core satori.Core) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, app := range a {
		app := app
		g.Go(func() error { return app.Start(gctx, core) })
	}
	return g.Wait()
}

// HandleEvent delivers an independent clone of event to every member
// concurrently, so one slow or misbehaving App cannot stall the others.
func (a Apps) HandleEvent(ctx context.Context, core satori.Core, event satori.Event) {
	var wg sync.WaitGroup
	for _, app := range a {
		app := app
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.HandleEvent(ctx, core, event.Clone())
		}()
	}
	wg.Wait()
}
