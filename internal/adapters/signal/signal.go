// Package signal is the websocket adapter: it owns connections, decodes the
// event envelope and translates between wire frames and orchestrator calls.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Office/internal/app/orch"
	"github.com/dkeye/Office/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch      *orch.Orchestrator
	ReadLimit int64

	chatLimiter *RateLimiter
}

func NewController(o *orch.Orchestrator, readLimit int64, chatLimit int, chatInterval time.Duration) *Controller {
	return &Controller{
		Orch:        o,
		ReadLimit:   readLimit,
		chatLimiter: NewRateLimiter(chatLimit, chatInterval),
	}
}

// WsConn wraps a websocket with a buffered outbound channel so fan-out
// never blocks on one slow peer.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client carries per-connection state through the pumps and handlers.
type client struct {
	sid    core.SessionID
	conn   *WsConn
	cancel context.CancelFunc
}

// HandleWS upgrades the request and starts the connection's pumps. Each
// connection gets a fresh session id; the stable user identity arrives
// later in the join payload.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Str("module", "signal").Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 64),
	}
	ctx, cancel := context.WithCancel(ctx)
	cl := &client{sid: sid, conn: conn, cancel: cancel}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cl)
}
