package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type AnswerHandler struct {
	svc *service.Service
}

func NewAnswerHandler(svc *service.Service) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

// GetAnswers lists the answers to a question
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var p service.ListAnswersParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	p.QuestionID = id

	list, err := h.svc.ListAnswers(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

// CreateAnswer answers a question (PROTECTED - requires authentication)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var p service.CreateAnswerParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	p.QuestionID = id

	a, err := h.svc.CreateAnswer(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, a)
}

// DeleteAnswer removes an answer (PROTECTED - requires ownership)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.DeleteAnswer(c.Request.Context(), actor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"id": id})
}
