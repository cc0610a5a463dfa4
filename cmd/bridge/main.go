// Package main is the entry point for satori-bridge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/datapilot/satori-bridge/internal/config"
	"github.com/datapilot/satori-bridge/internal/dispatch"
	"github.com/datapilot/satori-bridge/internal/netapp"
	"github.com/datapilot/satori-bridge/internal/netsdk"
	"github.com/datapilot/satori-bridge/internal/onebot"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	br, err := newBridge(logger)
	if err != nil {
		logger.Fatal("failed to build bridge", zap.Error(err))
	}

	if err := br.run(ctx); err != nil {
		logger.Fatal("bridge failed", zap.Error(err))
	}
}

// bridge wires one SDK side (an upstream OneBot v11 connection, optionally
// chained to an upstream Satori server) to one App side (the Net-side
// server this process exposes) through a single dispatch core, the Go
// analogue of the original SatoriImpl's held S and A.
type bridge struct {
	logger *zap.Logger
	core   *dispatch.Core
}

func newBridge(logger *zap.Logger) (*bridge, error) {
	obCfg, err := config.LoadOneBot()
	if err != nil {
		return nil, fmt.Errorf("load onebot config: %w", err)
	}
	netAppCfg, err := config.LoadNetApp()
	if err != nil {
		return nil, fmt.Errorf("load netapp config: %w", err)
	}

	var sdks dispatch.SDKs
	sdks = append(sdks, onebot.New(obCfg.URL, obCfg.Token, selfIDFromEnv(), logger))

	if netSDKCfg, err := config.LoadNetSDK(); err == nil {
		sdks = append(sdks, netsdk.New(netSDKCfg.URL, httpURLFromWS(netSDKCfg.URL), netSDKCfg.Token, logger))
	} else {
		logger.Info("no upstream satori server configured, running onebot-only", zap.Error(err))
	}

	app := netapp.New(fmt.Sprintf("%s:%d", netAppCfg.Host, netAppCfg.Port), netAppCfg.Path, netAppCfg.Token, logger)
	apps := dispatch.Apps{app}

	core := dispatch.New(sdks, apps, logger)
	return &bridge{logger: logger, core: core}, nil
}

func (b *bridge) run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	shutdown := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			b.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		close(shutdown)
	}()

	return b.core.StartWithGracefulShutdown(ctx, shutdown)
}

func selfIDFromEnv() string {
	return os.Getenv("SATORI_ONEBOT_SELF_ID")
}

// httpURLFromWS derives the HTTP base URL from a ws(s):// events URL,
// the same scheme-swap DataPilot-R-D-ChainKVM's config.deriveHTTPURL uses.
func httpURLFromWS(wsURL string) string {
	wsURL = strings.TrimSuffix(strings.TrimSuffix(wsURL, "/"), "/v1/events")
	switch {
	case len(wsURL) >= 6 && wsURL[:6] == "wss://":
		return "https://" + wsURL[6:]
	case len(wsURL) >= 5 && wsURL[:5] == "ws://":
		return "http://" + wsURL[5:]
	default:
		return wsURL
	}
}
