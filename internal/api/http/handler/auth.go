package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/model"
)

const stateCookieTTL = 10 * time.Minute

type AuthService interface {
	BeginLogin() (redirectURL, state string, err error)
	CompleteLogin(ctx context.Context, code, state, expectedState string, attempt model.SignInAttempt) (string, *model.Session, error)
}

type AuthHandler struct {
	log          *zap.Logger
	svc          AuthService
	paths        model.Paths
	tokenTTL     time.Duration
	secureCookie bool
}

func NewAuthHandler(log *zap.Logger, svc AuthService, paths model.Paths, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		log:          log,
		svc:          svc,
		paths:        paths,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// GoogleLogin
// @Summary Start Google sign-in.
// @Description Stores a random state in a short-lived cookie and redirects to Google.
// @Tags Auth
// @Success 302 "Redirect to Google"
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	redirectURL, state, err := h.svc.BeginLogin()
	if err != nil {
		h.log.Error("Failed to start sign-in", zap.Error(err))
		c.Redirect(http.StatusFound, h.paths.Denied())

		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(model.StateCookie, state, int(stateCookieTTL.Seconds()), h.paths.Auth(), "", h.secureCookie, true)
	c.Redirect(http.StatusFound, redirectURL)
}

// GoogleCallback
// @Summary Finish Google sign-in.
// @Description Allow-listed emails get a session cookie and land on the dashboard. Everything else goes back to the login page.
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 302 "Redirect to / or /login?error=AccessDenied"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	expectedState, _ := c.Cookie(model.StateCookie)
	c.SetCookie(model.StateCookie, "", -1, h.paths.Auth(), "", h.secureCookie, true)

	attempt := model.SignInAttempt{
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader(UserAgentHeader),
	}

	token, _, err := h.svc.CompleteLogin(c.Request.Context(), c.Query("code"), c.Query("state"), expectedState, attempt)
	if err != nil {
		c.Redirect(http.StatusFound, h.paths.Denied())
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(model.AccessCookie, token, int(h.tokenTTL.Seconds()), h.paths.Home(), "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.paths.Home())
}

// Logout
// @Summary Sign out.
// @Tags Auth
// @Success 302 "Redirect to /login"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(model.AccessCookie, "", -1, h.paths.Home(), "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.paths.Login())
}
