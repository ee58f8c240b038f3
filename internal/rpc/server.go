// Package rpc is the daemon's WebSocket control plane. The CLI and
// scripts drive a running daemon through small JSON frames:
//
//	Request:  { "type":"req", "id":"<uuid>", "method":"<name>", "params":<any> }
//	Response: { "type":"res", "id":"<uuid>", "ok":<bool>, "payload":<any>, "error":<ErrorShape> }
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type RequestFrame struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ResponseFrame struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	Ok      bool        `json:"ok"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorShape `json:"error,omitempty"`
}

// RespondFn sends the response for one request: ok=true with a
// payload, or ok=false with an error message.
type RespondFn func(ok bool, payload interface{}, errMsg string)

// Handler processes a single method call.
type Handler func(params json.RawMessage, respond RespondFn)

type Server struct {
	handlers map[string]Handler
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	log      *zap.SugaredLogger
}

func NewServer(log *zap.SugaredLogger) *Server {
	return &Server{
		handlers: make(map[string]Handler),
		upgrader: websocket.Upgrader{
			// The daemon binds to loopback; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Register adds a handler for the given method name.
func (s *Server) Register(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Start listens on addr ("host:port") and serves WebSocket connections
// until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc listen %s: %w", addr, err)
	}
	s.log.Infof("[rpc] listening on ws://%s", addr)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	srv := &http.Server{Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("[rpc] server error: %v", err)
		}
	}()

	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("[rpc] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	s.log.Infof("[rpc] client connected from %s", r.RemoteAddr)

	send := func(v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			s.log.Errorf("[rpc] marshal error: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Errorf("[rpc] write error: %v", err)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// One-shot CLI clients often drop the connection without a
			// close handshake; 1006 is expected.
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				s.log.Infof("[rpc] client disconnected: %s", r.RemoteAddr)
			} else {
				s.log.Errorf("[rpc] read error: %v", err)
			}
			return
		}

		var req RequestFrame
		if err := json.Unmarshal(data, &req); err != nil || req.Type != "req" || req.ID == "" || req.Method == "" {
			send(ResponseFrame{
				Type:  "res",
				ID:    req.ID,
				Ok:    false,
				Error: &ErrorShape{Code: "INVALID_REQUEST", Message: "invalid request frame"},
			})
			continue
		}

		s.mu.RLock()
		h, ok := s.handlers[req.Method]
		s.mu.RUnlock()

		if !ok {
			send(ResponseFrame{
				Type:  "res",
				ID:    req.ID,
				Ok:    false,
				Error: &ErrorShape{Code: "METHOD_NOT_FOUND", Message: fmt.Sprintf("unknown method: %s", req.Method)},
			})
			continue
		}

		h(req.Params, func(okFlag bool, payload interface{}, errMsg string) {
			res := ResponseFrame{Type: "res", ID: req.ID, Ok: okFlag}
			if okFlag {
				res.Payload = payload
			} else {
				res.Error = &ErrorShape{Code: "INTERNAL_ERROR", Message: errMsg}
			}
			send(res)
		})
	}
}
