package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/service"
)

const (
	wsPongWait  = 60 * time.Second
	wsPingGrace = 5 * time.Second
)

type MessageService interface {
	ListLatest(ctx context.Context, limit int) ([]model.MessageView, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*model.MessageView, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) (*model.MessageView, error)
}

type MessageHandler struct {
	log          *zap.Logger
	svc          MessageService
	pollInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewMessageHandler(log *zap.Logger, svc MessageService, pollInterval time.Duration, checkOrigin func(r *http.Request) bool) *MessageHandler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &MessageHandler{
		log:          log,
		svc:          svc,
		pollInterval: pollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type wsMessage struct {
	Type string `json:"type"`            // "snapshot" | "update" | "error"
	Data any    `json:"data,omitempty"`  // payload
	Err  string `json:"error,omitempty"` // error text
}

// List
// @Summary Latest messages.
// @Description Newest first by received time, decrypted. limit defaults to 100 and is capped at 500.
// @Tags SMS
// @Produce json
// @Security AccessToken
// @Param limit query int false "Page size"
// @Param q query string false "Case-insensitive filter on sender, content and receiver"
// @Success 200 {object} ResponseWithData{data=[]model.MessageView} "Success"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 500 {object} ResponseWithMessage "Failed to list messages"
// @Router /api/sms [get]
func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var query model.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	messages, err := h.svc.ListLatest(ctx, query.Limit)
	if err != nil {
		h.log.Error("Failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ResponseWithMessage{
			Status:  StatusErr,
			Message: "failed to list messages",
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   service.FilterMessages(messages, query.Query),
	})
}

// Get
// @Summary One message.
// @Tags SMS
// @Produce json
// @Security AccessToken
// @Param id path string true "Message UUID"
// @Success 200 {object} ResponseWithData{data=model.MessageView} "Success"
// @Failure 400 {object} model.ErrorResponse "Message ID is required"
// @Failure 404 {object} model.ErrorResponse "Message not found"
// @Router /api/sms/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := h.messageID(c)
	if !ok {
		return
	}

	message, err := h.svc.GetMessage(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   message,
	})
}

// MarkAsRead
// @Summary Mark a message as read.
// @Description Idempotent, repeating it returns the same message.
// @Tags SMS
// @Produce json
// @Security AccessToken
// @Param id path string true "Message UUID"
// @Success 200 {object} model.MessageView "Success"
// @Failure 400 {object} model.ErrorResponse "Message ID is required"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Message not found"
// @Router /api/sms/{id}/read [patch]
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	id, ok := h.messageID(c)
	if !ok {
		return
	}

	message, err := h.svc.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// Stream
// @Summary Live feed of the latest page over WebSocket.
// @Description Sends a snapshot, then an update whenever the page changes.
// @Tags SMS
// @Security AccessToken
// @Router /api/sms/ws [get]
func (h *MessageHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// drain reads so pongs and close frames get processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastHash string

	send := func(msg wsMessage) bool {
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			return false
		}
		return true
	}

	poll := func() bool {
		messages, err := h.svc.ListLatest(ctx, 0)
		if err != nil {
			return send(wsMessage{Type: "error", Err: "failed to list messages"})
		}

		raw, _ := json.Marshal(messages)
		sum := sha256.Sum256(raw)
		newHash := hex.EncodeToString(sum[:])

		switch {
		case lastHash == "":
			if !send(wsMessage{Type: "snapshot", Data: messages}) {
				return false
			}
		case newHash != lastHash:
			if !send(wsMessage{Type: "update", Data: messages}) {
				return false
			}
		}

		lastHash = newHash

		return conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsPingGrace)) == nil
	}

	if !poll() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !poll() {
				return
			}
		}
	}
}

func (h *MessageHandler) messageID(c *gin.Context) (uuid.UUID, bool) {
	var uri model.MessageIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		errorJSON(c, http.StatusBadRequest, ErrTextMessageIDMissing)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(uri.ID)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, ErrTextMessageIDMissing)
		return uuid.Nil, false
	}

	return id, true
}

func (h *MessageHandler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrMessageNotFound) {
		errorJSON(c, http.StatusNotFound, ErrTextMessageNotFound)
		return
	}

	h.log.Error("Failed to load message", zap.Error(err))
	errorJSON(c, http.StatusInternalServerError, ErrTextInternal)
}
