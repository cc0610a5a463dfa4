// Package netsdk implements the Net-side SDK (C9): a satori.SDK that
// dials an upstream Satori server over WebSocket, maintains the
// Identify/Ready/ping-pong handshake, and relays API calls over HTTP.
// Grounded on DataPilot-R-D-ChainKVM's internal/session.SignalingClient
// for the connect-with-retry/read-loop shape and internal/audit.Publisher
// for the HTTP call-out shape.
package netsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

const (
	pingInterval   = 10 * time.Second
	connectBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	httpTimeout    = 10 * time.Second
)

// HTTPClient abstracts http.Client.Do for testability, the same seam
// DataPilot-R-D-ChainKVM's internal/audit.Publisher uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the Net-side SDK: one upstream connection, any number of
// bots learned from that connection's Ready signal.
type Client struct {
	wsURL      string
	httpURL    string
	token      string
	logger     *zap.Logger
	httpClient HTTPClient

	mu   sync.RWMutex
	conn *websocket.Conn
	bots map[satori.BotId]satori.Login
	seq  int64
}

// New constructs a Net-side SDK client. wsURL is the `GET /v1/events`
// endpoint; httpURL is the base used to build `POST /v1/{method}` calls.
func New(wsURL, httpURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		wsURL:      wsURL,
		httpURL:    strings.TrimSuffix(httpURL, "/"),
		token:      token,
		logger:     logger,
		httpClient: &http.Client{Timeout: httpTimeout},
		bots:       make(map[satori.BotId]satori.Login),
	}
}

// SetHTTPClient overrides the HTTP client used for CallAPI, for tests.
func (c *Client) SetHTTPClient(client HTTPClient) { c.httpClient = client }

// Start connects, identifies, and runs the read loop until core.Stopped()
// fires or ctx is cancelled, reconnecting with backoff on drop.
func (c *Client) Start(ctx context.Context, core satori.Core) error {
	backoff := connectBackoff
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-core.Stopped():
			return nil
		default:
		}

		if err := c.runConnection(ctx, core); err != nil {
			c.logger.Warn("netsdk connection ended, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-core.Stopped():
				return nil
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		return nil
	}
}

func (c *Client) runConnection(ctx context.Context, core satori.Core) error {
	c.logger.Info("connecting to upstream satori server", zap.String("url", c.wsURL))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial upstream: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.bots = make(map[satori.BotId]satori.Login)
		c.seq = 0
		c.mu.Unlock()
	}()

	identify := satori.NewIdentifySignal(c.token, c.seq)
	if err := c.writeSignal(identify); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	readErr := make(chan error, 1)
	msgs := make(chan []byte)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			msgs <- data
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-core.Stopped():
			return nil
		case err := <-readErr:
			return fmt.Errorf("read upstream: %w", err)
		case <-ticker.C:
			if err := c.writeSignal(satori.NewPingSignal()); err != nil {
				return fmt.Errorf("send ping: %w", err)
			}
		case data := <-msgs:
			if err := c.handleMessage(ctx, core, data); err != nil {
				c.logger.Warn("discarding malformed upstream signal", zap.Error(err))
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, core satori.Core, data []byte) error {
	sig, err := satori.DecodeSignal(data)
	if err != nil {
		return err
	}
	switch sig.Op {
	case satori.OpPong:
		return nil
	case satori.OpReady:
		logins, err := sig.DecodeReady()
		if err != nil {
			return err
		}
		c.applyReady(logins)
		return nil
	case satori.OpEvent:
		event, err := sig.DecodeEvent()
		if err != nil {
			return err
		}
		c.seq = event.ID
		core.HandleEvent(ctx, event)
		return nil
	default:
		return fmt.Errorf("unexpected op %d from upstream", sig.Op)
	}
}

func (c *Client) applyReady(logins []satori.Login) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bots = make(map[satori.BotId]satori.Login, len(logins))
	for _, login := range logins {
		if login.Platform == nil || login.SelfID == nil {
			continue
		}
		c.bots[satori.BotId{Platform: *login.Platform, ID: *login.SelfID}] = login
	}
}

func (c *Client) writeSignal(sig satori.Signal) error {
	data, err := sig.Encode()
	if err != nil {
		return err
	}
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// HasBot reports whether this client's most recent Ready signal included bot.
func (c *Client) HasBot(ctx context.Context, bot satori.BotId) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bots[bot]
	return ok
}

// GetLogins lists the bots currently known via Ready.
func (c *Client) GetLogins(ctx context.Context) []satori.Login {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]satori.Login, 0, len(c.bots))
	for _, login := range c.bots {
		out = append(out, login)
	}
	return out
}

// CallAPI relays payload to the upstream server over HTTP, rejecting the
// call up front if bot is not (yet) known from a Ready signal.
func (c *Client) CallAPI(ctx context.Context, core satori.Core, bot satori.BotId, payload satori.RawApiCall) (any, error) {
	if !c.HasBot(ctx, bot) {
		return nil, satori.ErrInvalidBot()
	}

	url := fmt.Sprintf("%s/v1/%s", c.httpURL, payload.Method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, satori.NewInternalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform", bot.Platform)
	req.Header.Set("X-Self-ID", bot.ID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, satori.NewInternalError(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode < 400 {
		return nil, satori.NewInternalError(fmt.Errorf("decode response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, satori.FromAPIError(satori.NewServerError(resp.StatusCode))
	}
	return body, nil
}
