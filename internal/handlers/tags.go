package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type TagHandler struct {
	svc *service.Service
}

func NewTagHandler(svc *service.Service) *TagHandler {
	return &TagHandler{svc: svc}
}

func (h *TagHandler) GetTags(c *gin.Context) {
	var p service.ListTagsParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.ListTags(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

// GetTagQuestions lists the questions carrying a tag
func (h *TagHandler) GetTagQuestions(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var p service.TagQuestionsParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	p.TagID = id

	list, err := h.svc.TagQuestions(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}
