package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
	"github.com/evijayan2/smsmonitor/internal/model"
)

const (
	StatusErr          = "error"
	StatusSuccess      = "success"
	StatusNotAvailable = "not available"
	StatusNotPermitted = "not permitted"
	StatusOK           = "ok"
)

const (
	UserAgentHeader = "User-Agent"
)

// Error texts of the ingestion and mark-as-read endpoints. Device builds match on them.
const (
	ErrTextUnauthorized     = "Unauthorized"
	ErrTextInvalidJSON      = "Invalid JSON body"
	ErrTextMissingFields    = "Missing required fields: sender, content"
	ErrTextInvalidTimestamp = "Invalid timestamp"
	ErrTextInternal         = "Internal Server Error"
	ErrTextUnavailable      = "Service Unavailable"
	ErrTextStoreFailed      = "Failed to store message"
	ErrTextMessageNotFound  = "Message not found"
	ErrTextMessageIDMissing = "Message ID is required"
)

type BaseHandler struct{}

// GetSession returns the session the auth middleware put into the context.
func (h *BaseHandler) GetSession(c *gin.Context) (*model.Session, error) {
	emailValue, exists := c.Get(model.UserEmailKey)
	if !exists {
		return nil, apperrors.ErrContextValueDoesNotExist
	}

	email, ok := emailValue.(string)
	if !ok {
		return nil, apperrors.ErrContextValueInvalidType
	}

	name, _ := c.Get(model.UserNameKey)
	nameStr, _ := name.(string)

	return &model.Session{Email: email, Name: nameStr}, nil
}

// ResponseWithData
// @Description Common success/error envelope carrying a payload.
type ResponseWithData struct {
	Status string `json:"status"` // Request outcome
	Data   any    `json:"data"`   // Payload
} // @Name _ResponseWithData

// ResponseWithMessage
// @Description Common envelope carrying only a human readable message.
type ResponseWithMessage struct {
	Status  string `json:"status"`  // Request outcome
	Message string `json:"message"` // Human readable message
} // @Name _ResponseWithMessage

func errorJSON(c *gin.Context, code int, text string) {
	c.JSON(code, model.ErrorResponse{Error: text})
}

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}
