package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type SearchHandler struct {
	svc *service.Service
}

func NewSearchHandler(svc *service.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search runs the global search box query
func (h *SearchHandler) Search(c *gin.Context) {
	var p service.SearchParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.svc.GlobalSearch(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, results)
}
