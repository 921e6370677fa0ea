package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type CollectionHandler struct {
	svc *service.Service
}

func NewCollectionHandler(svc *service.Service) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

type toggleSaveRequest struct {
	QuestionID int `json:"questionId"`
}

// ToggleSave saves or unsaves a question for the caller
func (h *CollectionHandler) ToggleSave(c *gin.Context) {
	var req toggleSaveRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.QuestionID <= 0 {
		response.Error(c, apperr.Validation(map[string][]string{"questionId": {"must be a positive integer"}}))
		return
	}
	status, err := h.svc.ToggleSaveQuestion(c.Request.Context(), actor(c), req.QuestionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, status)
}

func (h *CollectionHandler) HasSaved(c *gin.Context) {
	id, err := paramID(c, "questionId")
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.svc.HasSavedQuestion(c.Request.Context(), actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, status)
}

// GetSaved lists the caller's saved questions
func (h *CollectionHandler) GetSaved(c *gin.Context) {
	var p service.SavedQuestionsParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.SavedQuestions(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}
