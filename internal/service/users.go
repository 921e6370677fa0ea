package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

type UserList struct {
	Users  []models.User `json:"users"`
	IsNext bool          `json:"isNext"`
}

type ListUsersParams struct {
	PageParams
	Filter string `json:"filter" form:"filter" validate:"omitempty,oneof=newest oldest popular"`
}

// ListUsers pages through users matching the query by name or email.
func (s *Service) ListUsers(ctx context.Context, p ListUsersParams) (*UserList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	order := "created_at DESC, id DESC"
	switch p.Filter {
	case "oldest":
		order = "created_at ASC, id ASC"
	case "popular":
		order = "reputation DESC, id ASC"
	}

	q := s.db(ctx).Model(&models.User{})
	if p.Query != "" {
		pattern := likePattern(p.Query)
		q = q.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("count users: %w", err))
	}
	list := []models.User{}
	if err := q.Order(order).Offset(p.offset()).Limit(p.limit()).Find(&list).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("list users: %w", err))
	}
	return &UserList{Users: list, IsNext: p.isNext(total, len(list))}, nil
}

type Profile struct {
	User           models.User `json:"user"`
	TotalQuestions int64       `json:"totalQuestions"`
	TotalAnswers   int64       `json:"totalAnswers"`
}

// GetUser returns a user with their question and answer totals.
func (s *Service) GetUser(ctx context.Context, userID int) (*Profile, error) {
	var out Profile
	if err := s.db(ctx).First(&out.User, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.From(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db(gctx).Model(&models.Question{}).Where("author_id = ?", userID).Count(&out.TotalQuestions).Error
	})
	g.Go(func() error {
		return s.db(gctx).Model(&models.Answer{}).Where("author_id = ?", userID).Count(&out.TotalAnswers).Error
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.From(fmt.Errorf("count user posts: %w", err))
	}
	return &out, nil
}

type UserPostsParams struct {
	PageParams
	UserID int `json:"userId" form:"-" validate:"required,gt=0"`
}

// UserQuestions pages through a user's questions, most upvoted first.
func (s *Service) UserQuestions(ctx context.Context, p UserPostsParams) (*QuestionList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	q := s.db(ctx).Model(&models.Question{}).Where("questions.author_id = ?", p.UserID)
	return s.pageQuestions(ctx, q, "questions.upvotes DESC, questions.views DESC, questions.id DESC", p.PageParams)
}

// UserAnswers pages through a user's answers, most upvoted first.
func (s *Service) UserAnswers(ctx context.Context, p UserPostsParams) (*AnswerList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	q := s.db(ctx).Model(&models.Answer{}).Where("author_id = ?", p.UserID)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("count answers: %w", err))
	}
	answers := []models.Answer{}
	err := q.Order("upvotes DESC, created_at DESC, id DESC").Offset(p.offset()).Limit(p.limit()).Find(&answers).Error
	if err != nil {
		return nil, apperr.From(fmt.Errorf("list answers: %w", err))
	}
	if err := s.hydrateAnswers(ctx, answers); err != nil {
		return nil, apperr.From(err)
	}
	return &AnswerList{Answers: answers, TotalAnswers: total, IsNext: p.isNext(total, len(answers))}, nil
}
