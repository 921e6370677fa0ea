package service

import (
	"context"
	"fmt"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// withTags fills Tags on each question in link order.
func (s *Service) withTags(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}

	var rows []struct {
		QuestionID int
		ID         int
		Name       string
	}
	err := s.db(ctx).Model(&models.Tag{}).
		Select("tag_questions.question_id, tags.id, tags.name").
		Joins("JOIN tag_questions ON tag_questions.tag_id = tags.id").
		Where("tag_questions.question_id IN ?", ids).
		Order("tag_questions.question_id, tag_questions.position, tag_questions.id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	byQuestion := make(map[int][]models.TagRef, len(questions))
	for _, r := range rows {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], models.TagRef{ID: r.ID, Name: r.Name})
	}
	for i := range questions {
		questions[i].Tags = byQuestion[questions[i].ID]
		if questions[i].Tags == nil {
			questions[i].Tags = []models.TagRef{}
		}
	}
	return nil
}

// authors loads the public author projection for the given user ids.
func (s *Service) authors(ctx context.Context, ids []int) (map[int]*models.Author, error) {
	out := make(map[int]*models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Author
	err := s.db(ctx).Model(&models.User{}).
		Select("id, name, image").
		Where("id IN ?", ids).
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (s *Service) hydrateQuestions(ctx context.Context, questions []models.Question) error {
	if err := s.withTags(ctx, questions); err != nil {
		return err
	}
	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.AuthorID)
	}
	byID, err := s.authors(ctx, ids)
	if err != nil {
		return err
	}
	for i := range questions {
		questions[i].Author = byID[questions[i].AuthorID]
	}
	return nil
}

func (s *Service) hydrateAnswers(ctx context.Context, answers []models.Answer) error {
	ids := make([]int, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.AuthorID)
	}
	byID, err := s.authors(ctx, ids)
	if err != nil {
		return err
	}
	for i := range answers {
		answers[i].Author = byID[answers[i].AuthorID]
	}
	return nil
}
