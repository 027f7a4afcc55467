// Package httpapi wires the HTTP surface: auth, matching, uploads, inbox and
// the websocket entry point.
package httpapi

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"

	"match-mate/auth"
	"match-mate/internal"
)

// WsHandler is the websocket entry point; the transport/ws package provides
// the implementation.
type WsHandler interface {
	Serve(c *gin.Context)
}

// NewRouter builds the gin engine. Signup and login are public, everything
// else sits behind the JWT middleware.
func NewRouter(h *Handlers, wsHandler WsHandler, issuer *auth.TokenIssuer, db *badger.DB, stats internal.StatsProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/auth/signup", h.Signup)
	router.POST("/auth/login", h.Login)

	authed := router.Group("/", RequireAuth(issuer))
	authed.GET("/match/:userId", h.Matches)
	authed.POST("/upload", h.Upload)
	authed.GET("/inbox/:userId", h.Inbox)
	authed.GET("/history/:peer", h.History)
	authed.GET("/ws", wsHandler.Serve)
	authed.GET("/debug/messages", gin.WrapF(internal.InspectHandler(db, stats)))

	return router
}
