package service

import (
	"context"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

type SavedStatus struct {
	Saved bool `json:"saved"`
}

// ToggleSaveQuestion saves the question for the actor, or unsaves it when it
// is already saved.
func (s *Service) ToggleSaveQuestion(ctx context.Context, actor Actor, questionID int) (*SavedStatus, error) {
	var out SavedStatus
	err := s.mutate(ctx, "toggle_save", actor, nil, func(tx *store.Tx) error {
		if _, err := tx.Question(questionID); err != nil {
			return err
		}
		existing, err := tx.Collection(actor.UserID, questionID)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.DeleteCollection(existing.ID); err != nil {
				return err
			}
		} else {
			if err := tx.CreateCollection(&models.Collection{AuthorID: actor.UserID, QuestionID: questionID}); err != nil {
				return err
			}
			out.Saved = true
		}
		tx.Touch(events.QuestionPath(questionID), events.CollectionPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// HasSavedQuestion reports whether the actor saved the question.
func (s *Service) HasSavedQuestion(ctx context.Context, actor Actor, questionID int) (*SavedStatus, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthorized()
	}
	var n int64
	err := s.db(ctx).Model(&models.Collection{}).
		Where("author_id = ? AND question_id = ?", actor.UserID, questionID).
		Count(&n).Error
	if err != nil {
		return nil, apperr.From(err)
	}
	return &SavedStatus{Saved: n > 0}, nil
}

type SavedQuestionsParams struct {
	PageParams
	Filter string `json:"filter" form:"filter" validate:"omitempty,oneof=mostrecent oldest mostvoted mostviewed mostanswered"`
}

// SavedQuestions pages through the actor's saved questions.
func (s *Service) SavedQuestions(ctx context.Context, actor Actor, p SavedQuestionsParams) (*QuestionList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	if !actor.Authenticated() {
		return nil, apperr.Unauthorized()
	}

	order := "collections.created_at DESC, questions.id DESC"
	switch p.Filter {
	case "oldest":
		order = "collections.created_at ASC, questions.id ASC"
	case "mostvoted":
		order = "questions.upvotes DESC, questions.id DESC"
	case "mostviewed":
		order = "questions.views DESC, questions.id DESC"
	case "mostanswered":
		order = "questions.answers DESC, questions.id DESC"
	}

	q := s.db(ctx).Model(&models.Question{}).
		Joins("JOIN collections ON collections.question_id = questions.id").
		Where("collections.author_id = ?", actor.UserID)
	if p.Query != "" {
		pattern := likePattern(p.Query)
		q = q.Where("questions.title ILIKE ? OR questions.content ILIKE ?", pattern, pattern)
	}
	return s.pageQuestions(ctx, q, order, p.PageParams)
}
