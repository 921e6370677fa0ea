// Package service exposes every named operation of the Q&A core. Each
// operation validates its parameters, checks the actor, then runs its writes
// in one atomic scope; cached views are invalidated after commit.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/auth"
	"github.com/emilythestrangee/devflow/backend/internal/metrics"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

// Actor is the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID int
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }

type Service struct {
	store  *store.Store
	tokens *auth.Tokens
	logger *slog.Logger
}

func New(st *store.Store, tokens *auth.Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, tokens: tokens, logger: logger}
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.store.DB(ctx)
}

// mutate runs work in one atomic scope after validating params and the actor.
// A nil params skips validation; a zero actor is rejected.
func (s *Service) mutate(ctx context.Context, op string, actor Actor, params any, work func(tx *store.Tx) error) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation(op, started, err) }()

	if params != nil {
		if err := validation.Struct(params); err != nil {
			return err
		}
	}
	if !actor.Authenticated() {
		return apperr.Unauthorized()
	}
	if err := s.store.Atomic(ctx, work); err != nil {
		return apperr.From(err)
	}
	return nil
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageParams are the paging and search parameters shared by list operations.
type PageParams struct {
	Page     int    `json:"page" form:"page" validate:"omitempty,gte=1"`
	PageSize int    `json:"pageSize" form:"pageSize" validate:"omitempty,gte=1,lte=100"`
	Query    string `json:"query" form:"query" validate:"max=200"`
}

func (p PageParams) limit() int {
	switch {
	case p.PageSize <= 0:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	default:
		return p.PageSize
	}
}

func (p PageParams) offset() int {
	page := max(p.Page, 1)
	return (page - 1) * p.limit()
}

// isNext reports whether rows remain after the current page.
func (p PageParams) isNext(total int64, got int) bool {
	return total > int64(p.offset()+got)
}

// likePattern escapes LIKE wildcards so the query matches literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
