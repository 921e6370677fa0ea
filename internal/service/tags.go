package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

type TagList struct {
	Tags   []models.Tag `json:"tags"`
	IsNext bool         `json:"isNext"`
}

type ListTagsParams struct {
	PageParams
	Filter string `json:"filter" form:"filter" validate:"omitempty,oneof=popular recent oldest name"`
}

// ListTags pages through tags.
func (s *Service) ListTags(ctx context.Context, p ListTagsParams) (*TagList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	order := "questions DESC, id ASC"
	switch p.Filter {
	case "recent":
		order = "created_at DESC, id DESC"
	case "oldest":
		order = "created_at ASC, id ASC"
	case "name":
		order = "lower(name) ASC"
	}

	q := s.db(ctx).Model(&models.Tag{})
	if p.Query != "" {
		q = q.Where("name ILIKE ?", likePattern(p.Query))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("count tags: %w", err))
	}
	list := []models.Tag{}
	if err := q.Order(order).Offset(p.offset()).Limit(p.limit()).Find(&list).Error; err != nil {
		return nil, apperr.From(fmt.Errorf("list tags: %w", err))
	}
	return &TagList{Tags: list, IsNext: p.isNext(total, len(list))}, nil
}

type TagQuestionList struct {
	Tag models.Tag `json:"tag"`
	QuestionList
}

type TagQuestionsParams struct {
	PageParams
	TagID int `json:"tagId" form:"-" validate:"required,gt=0"`
}

// TagQuestions pages through the questions carrying a tag, newest first.
func (s *Service) TagQuestions(ctx context.Context, p TagQuestionsParams) (*TagQuestionList, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	var tag models.Tag
	if err := s.db(ctx).First(&tag, p.TagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("tag")
		}
		return nil, apperr.From(err)
	}

	q := s.db(ctx).Model(&models.Question{}).
		Joins("JOIN tag_questions ON tag_questions.question_id = questions.id").
		Where("tag_questions.tag_id = ?", tag.ID)
	if p.Query != "" {
		pattern := likePattern(p.Query)
		q = q.Where("questions.title ILIKE ? OR questions.content ILIKE ?", pattern, pattern)
	}
	page, err := s.pageQuestions(ctx, q, "questions.created_at DESC, questions.id DESC", p.PageParams)
	if err != nil {
		return nil, err
	}
	return &TagQuestionList{Tag: tag, QuestionList: *page}, nil
}
