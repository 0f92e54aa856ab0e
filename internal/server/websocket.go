package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/engine"
	reqid "github.com/alexchamberlain/tartiflette/internal/reqid"
)

const transportWSProtocol = "graphql-transport-ws"

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// Close codes of graphql-transport-ws.
const (
	closeBadRequest      websocket.StatusCode = 4400
	closeUnauthorized    websocket.StatusCode = 4401
	closeInitTimeout     websocket.StatusCode = 4408
	closeDuplicateID     websocket.StatusCode = 4409
	closeTooManyInitReqs websocket.StatusCode = 4429
)

type incomingMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outgoingMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// serveWebSocket runs one graphql-transport-ws connection until the client
// leaves or the protocol is violated. It returns the status reported for
// the HTTP request.
func (h *Handler) serveWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zap.Logger) int {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{transportWSProtocol},
		OriginPatterns: originPatterns(h.opt.CORS.AllowedOrigins),
	})
	if err != nil {
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return http.StatusBadRequest
	}
	logger = logger.With(zap.String("connection_id", uuid.NewString()))
	if conn.Subprotocol() != transportWSProtocol {
		_ = conn.Close(websocket.StatusProtocolError, "unsupported subprotocol")
		return http.StatusSwitchingProtocols
	}
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(ctx)
	c := &wsConn{
		engine: h.engine,
		conn:   conn,
		logger: logger,
		subs:   map[string]*wsSubscription{},
	}
	code, reason := c.run(ctx, h.opt.InitTimeout)
	cancel()
	c.wg.Wait()
	_ = conn.Close(code, reason)
	logger.Debug("websocket closed", zap.Int("code", int(code)), zap.String("reason", reason))
	return http.StatusSwitchingProtocols
}

// originPatterns turns CORS origins into host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

type wsConn struct {
	engine *engine.Engine
	conn   *websocket.Conn
	logger *zap.Logger

	mu    sync.Mutex
	acked bool
	subs  map[string]*wsSubscription
	wg    sync.WaitGroup
}

type wsSubscription struct {
	cancel context.CancelFunc
}

// run reads client messages and returns the code the connection is closed
// with.
func (c *wsConn) run(ctx context.Context, initTimeout time.Duration) (websocket.StatusCode, string) {
	if initTimeout > 0 {
		timer := time.AfterFunc(initTimeout, func() {
			if !c.isAcked() {
				_ = c.conn.Close(closeInitTimeout, "Connection initialisation timeout")
			}
		})
		defer timer.Stop()
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return websocket.StatusNormalClosure, ""
		}
		var msg incomingMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			return closeBadRequest, "Invalid message received"
		}

		switch msg.Type {
		case msgConnectionInit:
			c.mu.Lock()
			already := c.acked
			c.acked = true
			c.mu.Unlock()
			if already {
				return closeTooManyInitReqs, "Too many initialisation requests"
			}
			if err := c.write(ctx, outgoingMessage{Type: msgConnectionAck}); err != nil {
				return websocket.StatusNormalClosure, ""
			}
		case msgPing:
			if err := c.write(ctx, outgoingMessage{Type: msgPong}); err != nil {
				return websocket.StatusNormalClosure, ""
			}
		case msgPong:
		case msgSubscribe:
			if !c.isAcked() {
				return closeUnauthorized, "Unauthorized"
			}
			var req GraphQLRequest
			if msg.ID == "" || json.Unmarshal(msg.Payload, &req) != nil {
				return closeBadRequest, "Invalid message received"
			}
			if !c.start(ctx, msg.ID, req.engineRequest()) {
				return closeDuplicateID, fmt.Sprintf("Subscriber for %s already exists", msg.ID)
			}
		case msgComplete:
			c.stop(msg.ID)
		default:
			return closeBadRequest, fmt.Sprintf("Unexpected message of type %s received", msg.Type)
		}
	}
}

func (c *wsConn) isAcked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acked
}

// write sends msg. ctx must be the connection context: an expired write
// context closes the connection.
func (c *wsConn) write(ctx context.Context, msg outgoingMessage) error {
	return wsjson.Write(ctx, c.conn, msg)
}

// start runs the operation with the given id. It reports false when the id
// is already in use.
func (c *wsConn) start(ctx context.Context, id string, req engine.Request) bool {
	c.mu.Lock()
	if _, ok := c.subs[id]; ok {
		c.mu.Unlock()
		return false
	}
	// Operations of one connection trace independently.
	rid, _ := reqid.FromContext(ctx)
	subCtx, cancel := context.WithCancel(reqid.WithID(ctx, rid+"/"+id))
	sub := &wsSubscription{cancel: cancel}
	c.subs[id] = sub
	c.mu.Unlock()

	logger := c.logger.With(zap.String("operation_id", id), zap.String("operation_name", req.OperationName))
	logger.Debug("subscription started")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		results, failed := c.engine.Subscribe(subCtx, req)
		if failed != nil {
			c.release(id, sub)
			if err := c.write(ctx, outgoingMessage{ID: id, Type: msgError, Payload: failed.Errors}); err != nil {
				logger.Debug("write failed", zap.Error(err))
			}
			return
		}
		for res := range results {
			if err := c.write(ctx, outgoingMessage{ID: id, Type: msgNext, Payload: res}); err != nil {
				logger.Debug("write failed", zap.Error(err))
				cancel()
			}
		}
		// Operations completed by the client are not acknowledged.
		stopped := subCtx.Err() != nil
		c.release(id, sub)
		if stopped {
			return
		}
		if err := c.write(ctx, outgoingMessage{ID: id, Type: msgComplete}); err != nil {
			logger.Debug("write failed", zap.Error(err))
		}
		logger.Debug("subscription completed")
	}()
	return true
}

// stop cancels the operation with the given id, if any.
func (c *wsConn) stop(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		sub.cancel()
	}
}

func (c *wsConn) release(id string, sub *wsSubscription) {
	c.mu.Lock()
	if c.subs[id] == sub {
		delete(c.subs, id)
	}
	c.mu.Unlock()
	sub.cancel()
}
