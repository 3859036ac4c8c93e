// Package ws is the realtime transport adapter: it upgrades HTTP
// requests, binds the authenticated session to an engine connection
// and pumps frames both ways.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/app"
	"github.com/voxly/voxly/internal/core"
)

// SessionUserKey is where the login handlers park the identity.
const SessionUserKey = "user"

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Orch   *app.Orchestrator
	Buffer int
}

func NewController(orch *app.Orchestrator, buffer int) *Controller {
	if buffer <= 0 {
		buffer = 64
	}
	return &Controller{Orch: orch, Buffer: buffer}
}

// Handle is the session binder for the realtime surface. No identity
// in the session means the connection is refused before any engine
// state exists; auth failure is fatal to the connection only.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	identity, _ := sessions.Default(c).Get(SessionUserKey).(string)
	if identity == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}

	sc := newSignalConn(conn, ctl.Buffer)
	bound := ctl.Orch.Connect(identity, sc)
	log.Info().Str("module", "ws").Str("cid", string(bound.ID)).Str("user", identity).Msg("connection bound")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, sc)
	go ctl.readPump(ctx, cancel, bound, sc)
}

func (ctl *Controller) writePump(ctx context.Context, cancel context.CancelFunc, c *signalConn) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, bound *core.Conn, c *signalConn) {
	defer func() {
		cancel()
		ctl.Orch.Disconnect(bound)
		c.Close()
		log.Info().Str("module", "ws").Str("cid", string(bound.ID)).Msg("readPump closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleFrame(ctx, bound, data)
		}
	}
}
