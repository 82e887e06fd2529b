package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/model"
	"github.com/evijayan2/smsmonitor/internal/service"
)

const groupByReceiver = "receiver"

type PageRenderer interface {
	Render(w io.Writer, name string, data any) error
}

type DashboardHandler struct {
	BaseHandler

	log      *zap.Logger
	svc      MessageService
	renderer PageRenderer
	paths    model.Paths

	dashboardPage string
	loginPage     string
}

func NewDashboardHandler(
	log *zap.Logger,
	svc MessageService,
	renderer PageRenderer,
	paths model.Paths,
	dashboardPage, loginPage string,
) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:   BaseHandler{},
		log:           log,
		svc:           svc,
		renderer:      renderer,
		paths:         paths,
		dashboardPage: dashboardPage,
		loginPage:     loginPage,
	}
}

// Index renders the latest page, optionally filtered by q and grouped by receiver.
func (h *DashboardHandler) Index(c *gin.Context) {
	session, err := h.GetSession(c)
	if err != nil {
		c.Redirect(http.StatusFound, h.paths.Login())
		return
	}

	var query model.ListQuery
	_ = c.ShouldBindQuery(&query)

	messages, err := h.svc.ListLatest(c.Request.Context(), query.Limit)
	if err != nil {
		h.log.Error("Failed to list messages", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to load messages")

		return
	}

	messages = service.FilterMessages(messages, query.Query)

	grouped := query.Group == groupByReceiver

	var groups []model.ReceiverGroup

	switch {
	case grouped:
		groups = service.GroupByReceiver(messages)
	case len(messages) > 0:
		groups = []model.ReceiverGroup{{Messages: messages}}
	}

	h.render(c, h.dashboardPage, gin.H{
		"Paths":   h.paths,
		"Session": session,
		"Query":   query.Query,
		"Grouped": grouped,
		"Groups":  groups,
	})
}

// Login renders the sign-in page. Any error code shows the same generic denial.
func (h *DashboardHandler) Login(c *gin.Context) {
	h.render(c, h.loginPage, gin.H{
		"Paths":  h.paths,
		"Denied": c.Query("error") != "",
	})
}

func (h *DashboardHandler) render(c *gin.Context, page string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page, data); err != nil {
		h.log.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")

		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
