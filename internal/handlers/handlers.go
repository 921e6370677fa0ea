package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/cache"
	"github.com/emilythestrangee/devflow/backend/internal/middleware"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

// Handler combines all handler types
type Handler struct {
	Auth       *AuthHandler
	Question   *QuestionHandler
	Answer     *AnswerHandler
	Vote       *VoteHandler
	Collection *CollectionHandler
	Tag        *TagHandler
	User       *UserHandler
	Search     *SearchHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *service.Service, pages *cache.Pages, oauthSecret string) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc, oauthSecret),
		Question:   NewQuestionHandler(svc, pages),
		Answer:     NewAnswerHandler(svc),
		Vote:       NewVoteHandler(svc),
		Collection: NewCollectionHandler(svc),
		Tag:        NewTagHandler(svc),
		User:       NewUserHandler(svc),
		Search:     NewSearchHandler(svc),
	}
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.ActorFromContext(c)}
}

// paramID reads a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation(map[string][]string{name: {"must be a positive integer"}})
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation(map[string][]string{"body": {"must be a valid JSON object"}})
	}
	return nil
}

func bindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return apperr.Validation(map[string][]string{"query": {"invalid query parameters"}})
	}
	return nil
}
