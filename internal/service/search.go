package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

const (
	searchPerType    = 2
	searchSingleType = 8
)

type SearchParams struct {
	Query string `json:"query" form:"query" validate:"required,max=200"`
	Type  string `json:"type" form:"type"`
}

type SearchResult struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	// ID is the question id for answer hits.
	ID int `json:"id"`
}

type searchable struct {
	kind  string
	model any
	field string
	// idColumn is what a hit links to.
	idColumn string
}

var searchables = []searchable{
	{kind: "question", model: &models.Question{}, field: "title", idColumn: "id"},
	{kind: "answer", model: &models.Answer{}, field: "content", idColumn: "question_id"},
	{kind: "tag", model: &models.Tag{}, field: "name", idColumn: "id"},
	{kind: "user", model: &models.User{}, field: "name", idColumn: "id"},
}

// GlobalSearch matches questions, answers, tags and users. Without a known
// type it returns a couple of hits per kind; with one it returns more of that
// kind only.
func (s *Service) GlobalSearch(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	kind := strings.ToLower(p.Type)
	targets := searchables
	limit := searchPerType
	for _, t := range searchables {
		if t.kind == kind {
			targets = []searchable{t}
			limit = searchSingleType
			break
		}
	}

	pattern := likePattern(p.Query)
	results := []SearchResult{}
	for _, t := range targets {
		var rows []struct {
			ID    int
			Title string
		}
		err := s.db(ctx).Model(t.model).
			Select(t.idColumn+" AS id, "+t.field+" AS title").
			Where(t.field+" ILIKE ?", pattern).
			Order("id").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return nil, apperr.From(fmt.Errorf("search %s: %w", t.kind, err))
		}
		for _, r := range rows {
			title := r.Title
			if t.kind == "answer" {
				title = "Answers containing " + p.Query
			}
			results = append(results, SearchResult{Title: title, Type: t.kind, ID: r.ID})
		}
	}
	return results, nil
}
