// Package dispatch implements the Satori dispatch core: a thin
// multiplexer that owns one composite SDK and one composite App, runs
// their lifecycles, and routes events and API calls between them.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

// Core is the dispatch core (spec.md §4.1). It holds the SDK and App by
// value and owns only the process-wide shutdown signal — it never holds
// a lock while invoking SDK/App methods.
type Core struct {
	sdk    satori.SDK
	app    satori.App
	logger *zap.Logger

	mu       sync.Mutex
	stop     context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once
}

// New constructs a dispatch core with the shutdown signal initialized to
// "not raised", mirroring _core.rs's Satori::new.
func New(sdk satori.SDK, app satori.App, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Core{
		sdk:     sdk,
		app:     app,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Start concurrently starts the SDK and App lifecycles and returns once
// both return, the Go analogue of tokio::join!(sdk.start, app.start).
func (c *Core) Start(ctx context.Context) error {
	c.logger.Info("starting satori dispatch core")

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			c.Shutdown()
		case <-c.stopped:
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.sdk.Start(gctx, c) })
	g.Go(func() error { return c.app.Start(gctx, c) })
	return g.Wait()
}

// StartWithGracefulShutdown runs Start concurrently with signal; whichever
// completes first triggers Shutdown, and the call returns only once the
// lifecycle has fully drained.
func (c *Core) StartWithGracefulShutdown(ctx context.Context, signal <-chan struct{}) error {
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case err := <-done:
		return err
	case <-signal:
		c.Shutdown()
		return <-done
	}
}

// Shutdown raises the shutdown signal. Idempotent (spec.md §3 invariant:
// level-triggered and monotonic).
func (c *Core) Shutdown() {
	c.stopOnce.Do(func() {
		c.logger.Info("stopping satori dispatch core")
		close(c.stopped)
		c.mu.Lock()
		stop := c.stop
		c.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
}

// Stopped resolves once the shutdown signal is raised.
func (c *Core) Stopped() <-chan struct{} { return c.stopped }

// CallAPI converts payload to its RawApiCall form, traces, and delegates
// to the SDK owning bot.
func (c *Core) CallAPI(ctx context.Context, bot satori.BotId, payload satori.IntoRawApiCall) (json.RawMessage, error) {
	raw, err := payload.IntoRaw()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("call api", zap.Any("bot", bot), zap.String("method", raw.Method))

	result, err := c.sdk.CallAPI(ctx, c, bot, raw)
	if err != nil {
		return nil, err
	}
	switch v := result.(type) {
	case json.RawMessage:
		return v, nil
	case nil:
		return json.RawMessage("null"), nil
	default:
		encoded, merr := json.Marshal(v)
		if merr != nil {
			return nil, satori.NewInternalError(merr)
		}
		return encoded, nil
	}
}

// HandleEvent traces and delegates the event to the App side.
func (c *Core) HandleEvent(ctx context.Context, event satori.Event) {
	c.logger.Debug("handle event", zap.Int64("id", event.ID), zap.String("type", event.Type))
	c.app.HandleEvent(ctx, c, event)
}

// GetLogins delegates to the SDK.
func (c *Core) GetLogins(ctx context.Context) []satori.Login {
	return c.sdk.GetLogins(ctx)
}
