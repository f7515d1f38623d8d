package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/induction-api/internal/service"
)

const progressFeedWriteTimeout = 10 * time.Second

// ProgressFeedHandler streams live progress events to admin dashboards over a websocket.
type ProgressFeedHandler struct {
	feed         service.ProgressFeed
	logger       zerolog.Logger
	pingInterval time.Duration
}

// NewProgressFeedHandler constructs the handler.
func NewProgressFeedHandler(feed service.ProgressFeed, logger zerolog.Logger, pingInterval time.Duration) *ProgressFeedHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &ProgressFeedHandler{
		feed:         feed,
		logger:       logger.With().Str("component", "progress_feed_handler").Logger(),
		pingInterval: pingInterval,
	}
}

// Register binds the websocket route on an admin-only router group.
func (h *ProgressFeedHandler) Register(router fiber.Router) {
	router.Use("/progress", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/progress", websocket.New(h.handleConnection))
}

func (h *ProgressFeedHandler) handleConnection(conn *websocket.Conn) {
	events, cleanup := h.feed.Subscribe()
	defer cleanup()

	userID, _ := conn.Locals("user_id").(uint)
	logger := h.logger.With().Uint("admin_id", userID).Logger()
	logger.Info().Msg("progress feed connected")
	defer logger.Info().Msg("progress feed disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(progressFeedWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("failed to write progress event")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(progressFeedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logger.Debug().Err(err).Msg("progress feed ping failed")
				return
			}
		case <-closed:
			return
		}
	}
}
