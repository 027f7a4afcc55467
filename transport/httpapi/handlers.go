package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-mate/auth"
	"match-mate/errors"
	"match-mate/services"
)

type Handlers struct {
	log    *slog.Logger
	auth   services.IAuthService
	chat   services.IChatService
	match  services.IMatchService
	upload services.IUploadService
}

func NewHandlers(
	log *slog.Logger,
	authService services.IAuthService,
	chat services.IChatService,
	match services.IMatchService,
	upload services.IUploadService,
) *Handlers {
	return &Handlers{log: log, auth: authService, chat: chat, match: match, upload: upload}
}

func (h *Handlers) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Signup(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handlers) Matches(c *gin.Context) {
	profiles, err := h.match.Matches(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": profiles})
}

// Upload accepts a multipart "video" part, or the raw request body when the
// request is not multipart.
func (h *Handlers) Upload(c *gin.Context) {
	body := c.Request.Body
	if file, _, err := c.Request.FormFile("video"); err == nil {
		defer file.Close()
		body = file
	}

	url, err := h.upload.Upload(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handlers) Inbox(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"previews": h.chat.Previews(c.Param("userId"))})
}

func (h *Handlers) History(c *gin.Context) {
	messages, err := h.chat.History(CallerID(c), c.Param("peer"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
