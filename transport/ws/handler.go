package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"match-mate/contract"
	"match-mate/runtime"
	"match-mate/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin filtering belongs to the reverse proxy in front of us.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	log      *slog.Logger
	presence contract.IPresence
	chat     services.IChatService
}

func NewHandler(log *slog.Logger, presence contract.IPresence, chat services.IChatService) *Handler {
	return &Handler{log: log, presence: presence, chat: chat}
}

// Serve upgrades the request and runs the connection's pumps. The request
// goroutine becomes the read pump; it returns when the peer disconnects.
func (h *Handler) Serve(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	conn := NewConn(h.log, wsConn)
	session := runtime.NewSession(h.log, conn, h.presence, h.chat)
	defer session.Close()

	h.log.Info("Websocket connected", "conn", conn.ID(), "remote", c.Request.RemoteAddr)

	go conn.WritePump()
	conn.ReadPump(c.Request.Context(), session.HandleFrame)
}
