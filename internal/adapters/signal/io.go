package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Pandey-Krishant/Msgly/internal/app"
)

const writeWait = 5 * time.Second

func (ctl *RelayWSController) writePump(ctx context.Context, c *WsRelayConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *RelayWSController) readPump(ctx context.Context, c *WsRelayConn) {
	// A disconnect must unregister before anything else observes the
	// connection, so no targeted delivery resolves to a dead socket.
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Registry.Unregister(c)
		ctl.limiter.Forget(c.id)
		c.Close()
	}()

	pongWait := ctl.cfg.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(c, data)
		}
	}
}

// handleFrame applies rate limiting and hands the frame to the router.
// Only call teardown events skip the limiter, so an end or reject is
// always attempted while the target is registered; unparseable frames
// count against the window like any other.
func (ctl *RelayWSController) handleFrame(c *WsRelayConn, data []byte) {
	event, ok := app.EventName(data)
	if !ok || !app.IsTeardown(event) {
		if !ctl.limiter.Allow(c.id) {
			log.Warn().Str("module", "signal").Str("conn", string(c.id)).
				Str("event", event).Msg("rate limit exceeded, dropped")
			return
		}
	}
	ctl.Router.Dispatch(c, data)
}
