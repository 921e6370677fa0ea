package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/cascade"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/reputation"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

type CreateAnswerParams struct {
	QuestionID int    `json:"questionId" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required,min=10"`
}

// CreateAnswer answers a question and bumps its answer count in the same
// scope.
func (s *Service) CreateAnswer(ctx context.Context, actor Actor, p CreateAnswerParams) (*models.Answer, error) {
	var a *models.Answer
	err := s.mutate(ctx, "create_answer", actor, &p, func(tx *store.Tx) error {
		q, err := tx.Question(p.QuestionID)
		if err != nil {
			return err
		}

		a = &models.Answer{QuestionID: q.ID, AuthorID: actor.UserID, Content: p.Content}
		if err := tx.CreateAnswer(a); err != nil {
			return err
		}
		if err := tx.AddQuestionCounter(q.ID, "answers", 1); err != nil {
			return err
		}
		if err := reputation.Record(tx, models.Interaction{
			UserID:     actor.UserID,
			Action:     models.ActionPost,
			ActionID:   a.ID,
			ActionType: models.TargetAnswer,
		}, actor.UserID); err != nil {
			return err
		}

		tx.Touch(events.HomePath, events.QuestionPath(q.ID), events.ProfilePath(actor.UserID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

type AnswerList struct {
	Answers      []models.Answer `json:"answers"`
	TotalAnswers int64           `json:"totalAnswers"`
	IsNext       bool            `json:"isNext"`
}

type ListAnswersParams struct {
	PageParams
	QuestionID int    `json:"questionId" form:"-" validate:"required,gt=0"`
	Filter     string `json:"filter" form:"filter" validate:"omitempty,oneof=latest oldest popular"`
}

// ListAnswers pages through a question's answers.
func (s *Service) ListAnswers(ctx context.Context, p ListAnswersParams) (*AnswerList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	order := "created_at DESC, id DESC"
	switch p.Filter {
	case "oldest":
		order = "created_at ASC, id ASC"
	case "popular":
		order = "upvotes DESC, id DESC"
	}

	q := s.db(ctx).Model(&models.Answer{}).Where("question_id = ?", p.QuestionID)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("count answers: %w", err))
	}

	answers := []models.Answer{}
	if err := q.Order(order).Offset(p.offset()).Limit(p.limit()).Find(&answers).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("list answers: %w", err))
	}
	if err := s.hydrateAnswers(ctx, answers); err != nil {
		return nil, apperr.From(err)
	}
	return &AnswerList{Answers: answers, TotalAnswers: total, IsNext: p.isNext(total, len(answers))}, nil
}

// DeleteAnswer removes the author's answer and its votes.
func (s *Service) DeleteAnswer(ctx context.Context, actor Actor, answerID int) error {
	return s.mutate(ctx, "delete_answer", actor, nil, func(tx *store.Tx) error {
		a, err := cascade.DeleteAnswer(tx, actor.UserID, answerID)
		if err != nil {
			return err
		}
		tx.Touch(events.HomePath)
		return reputation.Record(tx, models.Interaction{
			UserID:     actor.UserID,
			Action:     models.ActionDelete,
			ActionID:   a.ID,
			ActionType: models.TargetAnswer,
		}, actor.UserID)
	})
}
