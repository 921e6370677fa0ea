package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/response"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

// idempotencyHeader may carry the key instead of the request body.
const idempotencyHeader = "Idempotency-Key"

type VoteHandler struct {
	svc *service.Service
}

func NewVoteHandler(svc *service.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// CreateVote upvotes or downvotes a question or answer (PROTECTED)
func (h *VoteHandler) CreateVote(c *gin.Context) {
	var p service.CreateVoteParams
	if err := bindJSON(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	if p.IdempotencyKey == "" {
		p.IdempotencyKey = c.GetHeader(idempotencyHeader)
	}

	res, err := h.svc.CreateVote(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}

// HasVoted reports how the caller voted on a target (PROTECTED)
func (h *VoteHandler) HasVoted(c *gin.Context) {
	var p service.HasVotedParams
	if err := bindQuery(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.svc.HasVoted(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, status)
}
