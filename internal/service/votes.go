package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/reputation"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
	"github.com/emilythestrangee/devflow/backend/internal/votes"
)

type CreateVoteParams struct {
	TargetID   int               `json:"targetId" validate:"required,gt=0"`
	TargetType models.TargetType `json:"targetType" validate:"required,oneof=question answer"`
	VoteType   models.VoteType   `json:"voteType" validate:"required,oneof=upvote downvote"`
	// IdempotencyKey makes a retried request safe: a replay returns the
	// first result instead of toggling the vote again.
	IdempotencyKey string `json:"idempotencyKey,omitempty" validate:"omitempty,uuid"`
}

// CreateVote applies the actor's vote to a question or answer.
func (s *Service) CreateVote(ctx context.Context, actor Actor, p CreateVoteParams) (*votes.Result, error) {
	var res votes.Result
	err := s.mutate(ctx, "vote", actor, &p, func(tx *store.Tx) error {
		req := votes.Request{
			ActorID:    actor.UserID,
			TargetID:   p.TargetID,
			TargetType: p.TargetType,
			VoteType:   p.VoteType,
		}

		if p.IdempotencyKey != "" {
			var replayed bool
			var err error
			res, replayed, err = votes.ApplyOnce(tx, p.IdempotencyKey, req)
			if err != nil || replayed {
				return err
			}
		} else {
			var err error
			if res, _, err = votes.Apply(tx, req); err != nil {
				return err
			}
		}

		authorID, err := tx.TargetAuthor(p.TargetType, p.TargetID)
		if err != nil {
			return err
		}
		if res.Upvoted || res.Downvoted {
			if err := reputation.Record(tx, models.Interaction{
				UserID:     actor.UserID,
				Action:     models.InteractionAction(p.VoteType),
				ActionID:   p.TargetID,
				ActionType: p.TargetType,
			}, authorID); err != nil {
				return err
			}
		}

		page, err := questionPage(tx, p.TargetType, p.TargetID)
		if err != nil {
			return err
		}
		tx.Touch(page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// questionPage returns the page a vote target is shown on.
func questionPage(tx *store.Tx, targetType models.TargetType, targetID int) (string, error) {
	if targetType == models.TargetQuestion {
		return events.QuestionPath(targetID), nil
	}
	a, err := tx.LockAnswer(targetID)
	if err != nil {
		return "", err
	}
	return events.QuestionPath(a.QuestionID), nil
}

type HasVotedParams struct {
	TargetID   int               `json:"targetId" form:"targetId" validate:"required,gt=0"`
	TargetType models.TargetType `json:"targetType" form:"targetType" validate:"required,oneof=question answer"`
}

type VoteStatus struct {
	HasUpvoted   bool `json:"hasUpvoted"`
	HasDownvoted bool `json:"hasDownvoted"`
}

// HasVoted reports the actor's current vote on a target.
func (s *Service) HasVoted(ctx context.Context, actor Actor, p HasVotedParams) (*VoteStatus, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	if !actor.Authenticated() {
		return nil, apperr.Unauthorized()
	}

	var v models.Vote
	err := s.db(ctx).
		Where("author_id = ? AND action_id = ? AND action_type = ?", actor.UserID, p.TargetID, p.TargetType).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &VoteStatus{}, nil
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	state := votes.StateOf(v.VoteType)
	return &VoteStatus{HasUpvoted: state == votes.Upvoted, HasDownvoted: state == votes.Downvoted}, nil
}
