package signal

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Pandey-Krishant/Msgly/internal/app"
	"github.com/Pandey-Krishant/Msgly/internal/config"
	"github.com/Pandey-Krishant/Msgly/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// RelayWSController upgrades HTTP requests to WebSocket connections and
// runs the read/write pumps that feed the event router.
type RelayWSController struct {
	Router   *app.Router
	Registry *app.Registry

	cfg      *config.Config
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader
}

func NewRelayWSController(cfg *config.Config, router *app.Router, reg *app.Registry) *RelayWSController {
	allowed, allowAll := normalizeOrigins(cfg.Origins())
	return &RelayWSController{
		Router:   router,
		Registry: reg,
		cfg:      cfg,
		limiter:  NewEventRateLimiter(cfg.RateLimit, cfg.RateInterval),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowed, allowAll),
		},
	}
}

type WsRelayConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsRelayConn) ID() core.ConnID {
	return c.id
}

func (c *WsRelayConn) TrySend(f core.Frame) error {
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

func (c *WsRelayConn) Close() {
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

// HandleRelay upgrades the request and starts the connection's pumps. The
// connection becomes addressable once it sends a register event.
func (ctl *RelayWSController) HandleRelay(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsRelayConn{
		id:   core.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	log.Info().Str("module", "signal").Str("conn", string(conn.id)).
		Str("token", c.GetString("client_token")).Msg("new WS connection")

	ctl.Registry.Track(conn)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}
