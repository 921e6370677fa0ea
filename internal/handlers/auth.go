package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

// relaySecretHeader carries the shared secret of the frontend server that
// completes provider sign-ins.
const relaySecretHeader = "X-Internal-Secret"

type AuthHandler struct {
	svc         *service.Service
	oauthSecret string
}

func NewAuthHandler(svc *service.Service, oauthSecret string) *AuthHandler {
	return &AuthHandler{svc: svc, oauthSecret: oauthSecret}
}

// Register creates a credentials account
func (h *AuthHandler) Register(c *gin.Context) {
	var p service.SignUpParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.svc.SignUp(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, sess)
}

// Login signs in with email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var p service.SignInParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.svc.SignIn(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, sess)
}

// OAuthLogin signs in a user the frontend already verified with a provider.
// Only the frontend server may call it.
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	if h.oauthSecret == "" {
		response.Error(c, apperr.NotFound("OAuth sign-in"))
		return
	}
	got := c.GetHeader(relaySecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.oauthSecret)) != 1 {
		response.Error(c, apperr.Unauthorized())
		return
	}

	var p service.OAuthParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	sess, err := h.svc.SignInWithOAuth(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, sess)
}

// GetMe returns the signed-in user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}
