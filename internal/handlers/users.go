package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type UserHandler struct {
	svc *service.Service
}

func NewUserHandler(svc *service.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetUsers lists community members
func (h *UserHandler) GetUsers(c *gin.Context) {
	var p service.ListUsersParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.ListUsers(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

// GetUserProfile gets a user's profile with post totals
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, profile)
}

func (h *UserHandler) GetUserQuestions(c *gin.Context) {
	p, err := h.postsParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.UserQuestions(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

func (h *UserHandler) GetUserAnswers(c *gin.Context) {
	p, err := h.postsParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.UserAnswers(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

func (h *UserHandler) postsParams(c *gin.Context) (service.UserPostsParams, error) {
	var p service.UserPostsParams
	id, err := paramID(c, "id")
	if err != nil {
		return p, err
	}
	if err := bindQuery(c, &p); err != nil {
		return p, err
	}
	p.UserID = id
	return p, nil
}
