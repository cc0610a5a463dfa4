// Package netapp implements the Net-side App (C8): an HTTP/WebSocket
// server that exposes the dispatch core to downstream consumers over the
// wire Satori protocol. Routing follows heroiclabs-nakama's gorilla/mux
// style (the teacher repo carries no HTTP router of its own); the
// connection lifecycle and bearer-token check are grounded on
// original_source/src/impls/net/app.rs's ws_handler/api_handler.
package netapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datapilot/satori-bridge/internal/eventbus"
	"github.com/datapilot/satori-bridge/pkg/satori"
)

const identifyTimeout = 10 * time.Second

// apiCaller is the slice of the dispatch core's surface netapp needs
// beyond satori.Core (which only exposes HandleEvent/Stopped): the
// ability to execute an API call against a bot. The concrete core
// passed into Start always satisfies this structurally.
type apiCaller interface {
	CallAPI(ctx context.Context, bot satori.BotId, payload satori.IntoRawApiCall) (json.RawMessage, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the Net-side App: it serves GET {prefix}/v1/events (the event
// WebSocket) and POST {prefix}/v1/{api} (typed and raw API calls) for any
// bot the dispatch core's SDK side owns.
type Server struct {
	addr   string
	prefix string
	token  string
	logger *zap.Logger
	topic  *eventbus.Topic

	mu   sync.RWMutex
	bots map[satori.BotId]satori.Login
}

// New constructs a Net-side App server bound to addr (host:port), serving
// routes under prefix (may be empty).
func New(addr, prefix, token string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:   addr,
		prefix: strings.TrimSuffix(prefix, "/"),
		token:  token,
		logger: logger,
		topic:  eventbus.NewTopic(),
		bots:   make(map[satori.BotId]satori.Login),
	}
}

// HandleEvent publishes event to every connected WebSocket session and
// refreshes the login snapshot exposed going forward. Implements
// satori.App (partially; Start does the real work).
func (s *Server) HandleEvent(ctx context.Context, core satori.Core, event satori.Event) {
	if event.Login != nil && event.Platform != "" && event.SelfID != "" {
		s.mu.Lock()
		s.bots[satori.BotId{Platform: event.Platform, ID: event.SelfID}] = *event.Login
		s.mu.Unlock()
	}
	s.topic.Publish(event)
}

func (s *Server) snapshotLogins() []satori.Login {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]satori.Login, 0, len(s.bots))
	for _, login := range s.bots {
		out = append(out, login)
	}
	return out
}

// Start builds the router and serves it until ctx is cancelled or
// core.Stopped() fires, then shuts the HTTP server down gracefully.
func (s *Server) Start(ctx context.Context, core satori.Core) error {
	router := mux.NewRouter()
	eventsPath := s.prefix + "/v1/events"
	apiPath := s.prefix + "/v1/{api}"

	router.HandleFunc(eventsPath, func(w http.ResponseWriter, r *http.Request) {
		s.handleEvents(ctx, core, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc(apiPath, func(w http.ResponseWriter, r *http.Request) {
		s.handleAPI(ctx, core, w, r)
	}).Methods(http.MethodPost)

	httpServer := &http.Server{Addr: s.addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("netapp listening", zap.String("addr", s.addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case <-core.Stopped():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleAPI(ctx context.Context, core satori.Core, w http.ResponseWriter, r *http.Request) {
	if err := s.checkAuth(r); err != nil {
		writeAPIError(w, err)
		return
	}

	method := mux.Vars(r)["api"]
	platform := r.Header.Get("X-Platform")
	selfID := r.Header.Get("X-Self-ID")
	if platform == "" || selfID == "" {
		writeAPIError(w, satori.NewBadRequest(fmt.Errorf("missing X-Platform/X-Self-ID headers")))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, satori.NewBadRequest(err))
		return
	}

	caller, ok := core.(apiCaller)
	if !ok {
		writeError(w, satori.NewInternalError(fmt.Errorf("dispatch core does not support CallAPI")))
		return
	}

	bot := satori.BotId{Platform: platform, ID: selfID}
	result, err := caller.CallAPI(ctx, bot, satori.RawApiCall{Method: method, Body: body})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

func (s *Server) handleEvents(ctx context.Context, core satori.Core, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if err := s.runSession(ctx, core, conn); err != nil {
		s.logger.Debug("netapp session ended", zap.Error(err))
	}
}

func (s *Server) runSession(ctx context.Context, core satori.Core, conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(identifyTimeout)); err != nil {
		return err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read identify: %w", err)
	}
	sig, err := satori.DecodeSignal(data)
	if err != nil {
		return err
	}
	token, _, err := sig.DecodeIdentify()
	if err != nil {
		return err
	}
	if s.token != "" && token != s.token {
		_ = conn.Close()
		return fmt.Errorf("identify rejected: bad token")
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}

	ready := satori.NewReadySignal(s.snapshotLogins())
	if err := s.writeSignal(conn, ready); err != nil {
		return err
	}

	sub := s.topic.Subscribe()
	defer sub.Close()

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
			return ctx.Err()
		case <-core.Stopped():
			return nil
		case err := <-readErr:
			return err
		case data := <-incoming:
			if err := s.handleIncoming(conn, data); err != nil {
				s.logger.Debug("discarding malformed client signal", zap.Error(err))
			}
		case event := <-sub.C():
			evSig, err := satori.NewEventSignal(event)
			if err != nil {
				s.logger.Warn("failed to encode event signal", zap.Error(err))
				continue
			}
			if err := s.writeSignal(conn, evSig); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleIncoming(conn *websocket.Conn, data []byte) error {
	sig, err := satori.DecodeSignal(data)
	if err != nil {
		return err
	}
	if sig.Op == satori.OpPing {
		return s.writeSignal(conn, satori.NewPongSignal())
	}
	return nil
}

func (s *Server) writeSignal(conn *websocket.Conn, sig satori.Signal) error {
	data, err := sig.Encode()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// checkAuth validates the request's bearer token against s.token, the Go
// analogue of original_source's api_handler: no token configured means the
// endpoint is open; a missing Authorization header is Unauthorized (401);
// a present-but-wrong token is Forbidden (403).
func (s *Server) checkAuth(r *http.Request) *satori.APIError {
	if s.token == "" {
		return nil
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return satori.ErrUnauthorized()
	}
	if strings.TrimPrefix(auth, prefix) != s.token {
		return satori.ErrForbidden()
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	var satErr *satori.Error
	if errors.As(err, &satErr) {
		w.WriteHeader(satErr.HTTPStatus())
		json.NewEncoder(w).Encode(map[string]string{"error": satErr.Error()})
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeAPIError(w http.ResponseWriter, apiErr *satori.APIError) {
	w.WriteHeader(apiErr.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]string{"error": apiErr.Error()})
}
