package handlers

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/queue"
	"github.com/payguard/backend/pkg/logger"
)

const (
	watchPollInterval = 250 * time.Millisecond
	watchMaxDuration  = 2 * time.Minute
)

type WebSocketHandler struct {
	queue *queue.Queue
}

func NewWebSocketHandler(q *queue.Queue) *WebSocketHandler {
	return &WebSocketHandler{queue: q}
}

// HandleConnection serves job-watch subscriptions. A client sends
// {"type":"watch","message_id":"..."} and receives status updates until the
// job reaches a terminal state.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			MessageID string `json:"message_id"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "watch" || msg.MessageID == "" {
			h.sendError(c, "Expected a watch request with a message_id")
			continue
		}

		if err := h.watchJob(c, msg.MessageID); err != nil {
			logger.Error("Failed to stream job updates", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) watchJob(c *websocket.Conn, jobID string) error {
	deadline := time.Now().Add(watchMaxDuration)
	lastStatus := ""

	for time.Now().Before(deadline) {
		job, ok := h.queue.Status(jobID)
		if !ok {
			h.sendError(c, "Message not found")
			return nil
		}

		if job.Status != lastStatus {
			lastStatus = job.Status
			if err := h.sendStatus(c, &job); err != nil {
				return err
			}
		}

		if job.Status == queue.StatusCompleted || job.Status == queue.StatusFailed {
			return h.sendComplete(c, &job)
		}

		time.Sleep(watchPollInterval)
	}

	h.sendError(c, "Watch timed out before the job finished")
	return nil
}

func (h *WebSocketHandler) sendStatus(c *websocket.Conn, job *queue.Job) error {
	msg := map[string]interface{}{
		"type":       "status",
		"message_id": job.ID,
		"status":     job.Status,
	}
	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, job *queue.Job) error {
	msg := map[string]interface{}{
		"type":       "complete",
		"message_id": job.ID,
		"status":     job.Status,
		"result":     job.Result,
	}
	if job.Error != "" {
		msg["error"] = job.Error
	}
	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}
	c.WriteJSON(msg)
}
