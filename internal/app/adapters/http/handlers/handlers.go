package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tmiclient/internal/app/ports"
	"tmiclient/pkg/logger"
	"tmiclient/pkg/tmi"
)

const commandTimeout = 15 * time.Second

type Handlers struct {
	log   logger.Logger
	chat  ports.ChatPort
	store ports.ChannelStorePort
}

// New builds the handlers. With a nil store, join and part only affect the
// live session.
func New(log logger.Logger, chat ports.ChatPort, store ports.ChannelStorePort) *Handlers {
	return &Handlers{log: log, chat: chat, store: store}
}

type statusResponse struct {
	Username   string   `json:"username"`
	ReadyState string   `json:"ready_state"`
	Channels   []string `json:"channels"`
	LatencyMs  int64    `json:"latency_ms"`
}

func (h *Handlers) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Username:   h.chat.Username(),
		ReadyState: h.chat.ReadyState(),
		Channels:   h.chat.Channels(),
		LatencyMs:  h.chat.Latency().Milliseconds(),
	})
}

type channelRequest struct {
	Channel string `json:"channel" binding:"required"`
}

type sayRequest struct {
	Channel string `json:"channel" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *Handlers) JoinHandler(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "join", func(ctx context.Context) error {
		if err := h.chat.Join(ctx, req.Channel); err != nil {
			return err
		}
		if h.store != nil {
			return h.store.AddChannel(req.Channel)
		}
		return nil
	})
}

func (h *Handlers) PartHandler(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "part", func(ctx context.Context) error {
		if err := h.chat.Part(ctx, req.Channel); err != nil {
			return err
		}
		if h.store != nil {
			return h.store.RemoveChannel(req.Channel)
		}
		return nil
	})
}

func (h *Handlers) SayHandler(c *gin.Context) {
	var req sayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "say", func(ctx context.Context) error { return h.chat.Say(ctx, req.Channel, req.Message) })
}

func (h *Handlers) run(c *gin.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		h.log.Warn("Command failed", slog.String("command", name), slog.Any("error", err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	var cmdErr *tmi.CommandError
	switch {
	case errors.Is(err, tmi.ErrNotConnected), errors.Is(err, tmi.ErrDisconnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, tmi.ErrNoResponse), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, tmi.ErrCommandPending):
		return http.StatusConflict
	case errors.Is(err, tmi.ErrAnonymous), errors.As(err, &cmdErr):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
