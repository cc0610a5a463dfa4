// Package onebot implements the OneBot v11 adapter (C10): a satori.SDK
// that multiplexes Satori events and API calls over a single OneBot v11
// WebSocket connection, echo-correlating outbound Actions to their
// ActionResp the way DataPilot-R-D-ChainKVM's internal/datachannel.Router
// correlates DataChannel messages to handlers — one goroutine owns the
// socket and a map of pending waiters.
package onebot

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

// outboundQueueCapacity bounds the number of in-flight Actions this
// adapter will buffer before CallAPI starts blocking its caller.
const outboundQueueCapacity = 100

type pendingCall struct {
	resp chan ActionResp
	err  chan error
}

// Adapter is the OneBot v11 SDK. It owns exactly one bot identity,
// matching the original's Onebot11SDK::has_bot.
type Adapter struct {
	url         string
	accessToken string
	selfID      string
	logger      *zap.Logger

	outbound chan outboundAction

	mu      sync.Mutex
	pending map[string]pendingCall
	online  bool
}

type outboundAction struct {
	action Action
	result pendingCall
}

// New constructs a OneBot v11 adapter for the bot identified by selfID.
func New(url, accessToken, selfID string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		url:         url,
		accessToken: accessToken,
		selfID:      selfID,
		logger:      logger,
		outbound:    make(chan outboundAction, outboundQueueCapacity),
		pending:     make(map[string]pendingCall),
	}
}

// HasBot reports whether bot is the single identity this adapter owns.
func (a *Adapter) HasBot(ctx context.Context, bot satori.BotId) bool {
	return bot.Platform == platformName && bot.ID == a.selfID
}

// GetLogins reports this adapter's one login, online only while connected.
func (a *Adapter) GetLogins(ctx context.Context) []satori.Login {
	a.mu.Lock()
	online := a.online
	a.mu.Unlock()

	status := satori.StatusOffline
	if online {
		status = satori.StatusOnline
	}
	platform := platformName
	selfID := a.selfID
	return []satori.Login{{Platform: &platform, SelfID: &selfID, Status: status}}
}

// Start dials the OneBot v11 WebSocket and runs the multiplexer loop
// until core.Stopped() fires or the connection drops.
func (a *Adapter) Start(ctx context.Context, core satori.Core) error {
	header := http.Header{}
	if a.accessToken != "" {
		header.Set("Authorization", "Bearer "+a.accessToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.url, header)
	if err != nil {
		return fmt.Errorf("dial onebot: %w", err)
	}
	defer conn.Close()

	a.setOnline(true)
	defer a.setOnline(false)
	defer a.failAllPending(fmt.Errorf("onebot connection closed"))

	a.logger.Info("onebot websocket connected", zap.String("url", a.url))

	incoming := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			incoming <- data
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, nil)
			return ctx.Err()
		case <-core.Stopped():
			_ = conn.WriteMessage(websocket.CloseMessage, nil)
			return nil
		case err := <-readErr:
			return fmt.Errorf("onebot read: %w", err)
		case data := <-incoming:
			a.handleInbound(ctx, core, data)
		case out := <-a.outbound:
			if err := conn.WriteJSON(out.action); err != nil {
				out.result.err <- err
				continue
			}
			a.mu.Lock()
			a.pending[out.action.Echo] = out.result
			a.mu.Unlock()
		}
	}
}

func (a *Adapter) handleInbound(ctx context.Context, core satori.Core, data []byte) {
	isResp, err := classifyInbound(data)
	if err != nil {
		a.logger.Warn("discarding malformed onebot frame", zap.Error(err))
		return
	}

	if isResp {
		var resp ActionResp
		if err := json.Unmarshal(data, &resp); err != nil {
			a.logger.Warn("discarding malformed onebot action response", zap.Error(err))
			return
		}
		a.mu.Lock()
		waiter, ok := a.pending[resp.Echo]
		if ok {
			delete(a.pending, resp.Echo)
		}
		a.mu.Unlock()
		if ok {
			waiter.resp <- resp
		}
		return
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		a.logger.Warn("discarding malformed onebot event", zap.Error(err))
		return
	}
	if msg.PostType != "message" {
		return
	}
	core.HandleEvent(ctx, eventFromMessage(msg))
}

// CallAPI translates payload into a OneBot v11 Action, sends it with a
// fresh echo token, and waits for the matching ActionResp.
func (a *Adapter) CallAPI(ctx context.Context, core satori.Core, bot satori.BotId, payload satori.RawApiCall) (any, error) {
	if payload.Method != "message.create" {
		return nil, satori.FromAPIError(satori.ErrMethodNotAllowed())
	}

	action, err := actionFromMessageCreate(payload)
	if err != nil {
		if apiErr, ok := err.(*satori.APIError); ok {
			return nil, satori.FromAPIError(apiErr)
		}
		return nil, err
	}
	action.Echo = newEcho()

	waiter := pendingCall{resp: make(chan ActionResp, 1), err: make(chan error, 1)}
	select {
	case a.outbound <- outboundAction{action: action, result: waiter}:
	case <-ctx.Done():
		return nil, satori.NewInternalError(ctx.Err())
	}

	select {
	case resp := <-waiter.resp:
		if resp.Status != "ok" && resp.Status != "async" {
			return nil, satori.FromAPIError(satori.NewServerError(http.StatusBadGateway))
		}
		return resp.Data, nil
	case err := <-waiter.err:
		return nil, satori.NewInternalError(err)
	case <-ctx.Done():
		return nil, satori.NewInternalError(ctx.Err())
	}
}

func (a *Adapter) setOnline(online bool) {
	a.mu.Lock()
	a.online = online
	a.mu.Unlock()
}

func (a *Adapter) failAllPending(err error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = make(map[string]pendingCall)
	a.mu.Unlock()
	for _, waiter := range pending {
		waiter.err <- err
	}
}

// newEcho generates an 8-character echo token by base32-encoding the
// first 5 bytes of a fresh UUID, since OneBot v11 leaves the echo format
// unspecified and only requires round-trip uniqueness.
func newEcho() string {
	id := uuid.New()
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:5])
	return strings.ToLower(encoded)
}
