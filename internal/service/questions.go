package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/cascade"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/metrics"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/reputation"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/tags"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

type CreateQuestionParams struct {
	Title   string   `json:"title" validate:"required,notblank,min=5,max=100"`
	Content string   `json:"content" validate:"required,notblank"`
	Tags    []string `json:"tags" validate:"required,min=1,max=3,dive,notblank,max=30"`
}

// CreateQuestion posts a question with its tags and credits the author.
func (s *Service) CreateQuestion(ctx context.Context, actor Actor, p CreateQuestionParams) (*models.Question, error) {
	var q *models.Question
	err := s.mutate(ctx, "create_question", actor, &p, func(tx *store.Tx) error {
		q = &models.Question{Title: p.Title, Content: p.Content, AuthorID: actor.UserID}
		if err := tx.CreateQuestion(q); err != nil {
			return err
		}
		ch, err := tags.Reconcile(tx, q.ID, p.Tags)
		if err != nil {
			return err
		}
		q.Tags = models.Refs(ch.Tags)

		if err := reputation.Record(tx, models.Interaction{
			UserID:     actor.UserID,
			Action:     models.ActionPost,
			ActionID:   q.ID,
			ActionType: models.TargetQuestion,
		}, actor.UserID); err != nil {
			return err
		}

		tx.Touch(events.HomePath, events.TagsPath, events.QuestionPath(q.ID), events.ProfilePath(actor.UserID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

type EditQuestionParams struct {
	QuestionID int      `json:"questionId" validate:"required,gt=0"`
	Title      string   `json:"title" validate:"required,notblank,min=5,max=100"`
	Content    string   `json:"content" validate:"required,notblank"`
	Tags       []string `json:"tags" validate:"required,min=1,max=3,dive,notblank,max=30"`
}

// EditQuestion updates the author's question and reconciles its tags.
func (s *Service) EditQuestion(ctx context.Context, actor Actor, p EditQuestionParams) (*models.Question, error) {
	var q *models.Question
	err := s.mutate(ctx, "edit_question", actor, &p, func(tx *store.Tx) error {
		var err error
		q, err = tx.LockQuestion(p.QuestionID)
		if err != nil {
			return err
		}
		if q.AuthorID != actor.UserID {
			return apperr.Forbidden("you can only edit your own questions")
		}

		fields := map[string]any{}
		if q.Title != p.Title {
			fields["title"] = p.Title
			q.Title = p.Title
		}
		if q.Content != p.Content {
			fields["content"] = p.Content
			q.Content = p.Content
		}
		if err := tx.UpdateQuestion(q.ID, fields); err != nil {
			return err
		}

		ch, err := tags.Reconcile(tx, q.ID, p.Tags)
		if err != nil {
			return err
		}
		q.Tags = models.Refs(ch.Tags)
		if len(ch.Added)+len(ch.Removed) > 0 {
			tx.Touch(events.TagsPath)
		}

		tx.Touch(events.HomePath, events.QuestionPath(q.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestion returns a question with its tags and author.
func (s *Service) GetQuestion(ctx context.Context, questionID int) (*models.Question, error) {
	var q models.Question
	if err := s.db(ctx).First(&q, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question")
		}
		return nil, apperr.From(err)
	}
	list := []models.Question{q}
	if err := s.hydrateQuestions(ctx, list); err != nil {
		return nil, apperr.From(err)
	}
	return &list[0], nil
}

type QuestionList struct {
	Questions []models.Question `json:"questions"`
	IsNext    bool              `json:"isNext"`
}

type ListQuestionsParams struct {
	PageParams
	Filter string `json:"filter" form:"filter" validate:"omitempty,oneof=newest unanswered popular recommended"`
}

// ListQuestions pages through questions. The recommended filter needs an
// authenticated actor and is empty otherwise.
func (s *Service) ListQuestions(ctx context.Context, actor Actor, p ListQuestionsParams) (*QuestionList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	q := s.db(ctx).Model(&models.Question{})
	if p.Query != "" {
		pattern := likePattern(p.Query)
		q = q.Where("questions.title ILIKE ? OR questions.content ILIKE ?", pattern, pattern)
	}

	order := "questions.created_at DESC, questions.id DESC"
	switch p.Filter {
	case "recommended":
		if !actor.Authenticated() {
			return &QuestionList{Questions: []models.Question{}}, nil
		}
		q = recommended(q, actor.UserID)
		order = "questions.upvotes DESC, questions.views DESC, questions.id DESC"
	case "unanswered":
		q = q.Where("questions.answers = 0")
	case "popular":
		order = "questions.upvotes DESC, questions.id DESC"
	}

	return s.pageQuestions(ctx, q, order, p.PageParams)
}

// recommendedWindow is how many recent interactions seed recommendations.
const recommendedWindow = 50

// recommended narrows q to questions sharing a tag with those the user
// recently interacted with, excluding their own and the ones already seen.
func recommended(q *gorm.DB, userID int) *gorm.DB {
	db := q.Session(&gorm.Session{NewDB: true})
	seen := db.Model(&models.Interaction{}).
		Select("action_id").
		Where("user_id = ? AND action_type = ? AND action IN ?", userID, models.TargetQuestion,
			[]models.InteractionAction{models.ActionView, models.ActionUpvote, models.ActionPost}).
		Order("created_at DESC").
		Limit(recommendedWindow)
	seenTags := db.Model(&models.TagQuestion{}).
		Select("tag_id").
		Where("question_id IN (?)", seen)
	candidates := db.Model(&models.TagQuestion{}).
		Select("question_id").
		Where("tag_id IN (?)", seenTags)

	return q.Where("questions.id IN (?)", candidates).
		Where("questions.id NOT IN (?)", seen).
		Where("questions.author_id <> ?", userID)
}

// pageQuestions counts the rows matched by q and loads one page of them.
func (s *Service) pageQuestions(ctx context.Context, q *gorm.DB, order string, p PageParams) (*QuestionList, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("count questions: %w", err))
	}

	questions := []models.Question{}
	if err := q.Order(order).Offset(p.offset()).Limit(p.limit()).Find(&questions).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("list questions: %w", err))
	}
	if err := s.hydrateQuestions(ctx, questions); err != nil {
		return nil, apperr.From(err)
	}
	return &QuestionList{Questions: questions, IsNext: p.isNext(total, len(questions))}, nil
}

// hotLimit is the size of the hot questions list.
const hotLimit = 5

// HotQuestions returns the most viewed questions.
func (s *Service) HotQuestions(ctx context.Context) ([]models.Question, error) {
	questions := []models.Question{}
	err := s.db(ctx).Order("views DESC, upvotes DESC, id DESC").Limit(hotLimit).Find(&questions).Error
	if err != nil {
		return nil, apperr.From(err)
	}
	return questions, nil
}

type Views struct {
	Views int `json:"views"`
}

// IncrementViews counts one view. Authenticated viewers are logged as a view
// interaction.
func (s *Service) IncrementViews(ctx context.Context, actor Actor, questionID int) (_ *Views, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation("increment_views", started, err) }()

	var out Views
	err = s.store.Atomic(ctx, func(tx *store.Tx) error {
		if err := tx.AddQuestionCounter(questionID, "views", 1); err != nil {
			return err
		}
		q, err := tx.Question(questionID)
		if err != nil {
			return err
		}
		out.Views = q.Views

		if actor.Authenticated() {
			if err := reputation.Record(tx, models.Interaction{
				UserID:     actor.UserID,
				Action:     models.ActionView,
				ActionID:   questionID,
				ActionType: models.TargetQuestion,
			}, q.AuthorID); err != nil {
				return err
			}
		}
		tx.Touch(events.QuestionPath(questionID))
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return &out, nil
}

// DeleteQuestion removes the author's question with everything attached to it.
func (s *Service) DeleteQuestion(ctx context.Context, actor Actor, questionID int) error {
	return s.mutate(ctx, "delete_question", actor, nil, func(tx *store.Tx) error {
		if _, err := cascade.DeleteQuestion(tx, actor.UserID, questionID); err != nil {
			return err
		}
		tx.Touch(events.TagsPath)
		return reputation.Record(tx, models.Interaction{
			UserID:     actor.UserID,
			Action:     models.ActionDelete,
			ActionID:   questionID,
			ActionType: models.TargetQuestion,
		}, actor.UserID)
	})
}
