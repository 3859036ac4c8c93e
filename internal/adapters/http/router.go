// Package http wires the web surface: auth routes, the history REST
// read, static assets and the websocket upgrade endpoint.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/adapters/ws"
	"github.com/voxly/voxly/internal/app"
	"github.com/voxly/voxly/internal/auth"
	"github.com/voxly/voxly/internal/config"
	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

const sessionName = "voxly"

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	orch *app.Orchestrator,
	authSvc *auth.Service,
	history core.HistoryStore,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	r.POST("/register", func(c *gin.Context) {
		var req credentials
		if err := c.Bind(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "Missing fields"})
			return
		}
		identity, err := authSvc.Register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": false, "msg": authMessage(err)})
			return
		}
		bindSession(c, identity)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.POST("/login", func(c *gin.Context) {
		var req credentials
		if err := c.Bind(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "Missing fields"})
			return
		}
		identity, err := authSvc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": false, "msg": authMessage(err)})
			return
		}
		bindSession(c, identity)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/me", func(c *gin.Context) {
		user, _ := sessions.Default(c).Get(ws.SessionUserKey).(string)
		if user == "" {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	})

	r.GET("/history/:channel", func(c *gin.Context) {
		channel := domain.ChannelName(c.Param("channel"))
		msgs, err := history.History(c.Request.Context(), channel)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("channel", string(channel)).Msg("history read")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
			return
		}
		if msgs == nil {
			msgs = []domain.Message{}
		}
		c.JSON(http.StatusOK, msgs)
	})

	ctl := ws.NewController(orch, cfg.SendBuffer)
	r.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

func bindSession(c *gin.Context, identity string) {
	sess := sessions.Default(c)
	sess.Set(ws.SessionUserKey, identity)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
}

// authMessage maps service errors to the terse strings the web client
// already knows.
func authMessage(err error) string {
	switch err {
	case auth.ErrUserExists:
		return "User exists"
	case auth.ErrUnknownUser:
		return "No user"
	case auth.ErrWrongPassword:
		return "Wrong password"
	case auth.ErrTooManyTries:
		return "Too many attempts"
	case domain.ErrUsernameEmpty, domain.ErrUsernameTooLong:
		return "Invalid username"
	default:
		return "Try again later"
	}
}
