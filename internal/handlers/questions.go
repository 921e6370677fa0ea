package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/cache"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type QuestionHandler struct {
	svc   *service.Service
	pages *cache.Pages
}

func NewQuestionHandler(svc *service.Service, pages *cache.Pages) *QuestionHandler {
	return &QuestionHandler{svc: svc, pages: pages}
}

// GetQuestions lists questions with paging, search and filters
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	var p service.ListQuestionsParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.ListQuestions(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

func (h *QuestionHandler) GetHotQuestions(c *gin.Context) {
	list, err := h.svc.HotQuestions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, list)
}

// GetQuestion returns a single question, served from the page cache when
// it has not changed since it was rendered.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	key := events.QuestionPath(id)
	var stamp uint64
	if h.pages != nil {
		if body, ok := h.pages.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
		// Taken before the read so a change committed meanwhile wins.
		stamp = h.pages.Stamp()
	}

	q, err := h.svc.GetQuestion(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := json.Marshal(response.Envelope{Success: true, Data: q})
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.pages != nil {
		h.pages.Set(key, stamp, body)
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var p service.CreateQuestionParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	q, err := h.svc.CreateQuestion(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, q)
}

// UpdateQuestion edits a question (PROTECTED - requires ownership)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var p service.EditQuestionParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	p.QuestionID = id

	q, err := h.svc.EditQuestion(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, q)
}

// DeleteQuestion removes a question and everything attached to it (PROTECTED - requires ownership)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.DeleteQuestion(c.Request.Context(), actor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"id": id})
}

func (h *QuestionHandler) IncrementViews(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.svc.IncrementViews(c.Request.Context(), actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, views)
}
