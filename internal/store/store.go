// Package store is the Entity Store and its Atomic Mutation Executor.
//
// Every mutation runs inside Store.Atomic. The callback receives a *Tx, the
// unit of work shared by every engine taking part in the mutation; engines
// read and write only through it and never see the underlying gorm handle.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/metrics"
)

// ErrNestedScope is returned when Atomic is called from inside another scope.
var ErrNestedScope = errors.New("atomic scope already open")

type scopeKey struct{}

// CommitHook receives the logical paths touched by a committed scope.
type CommitHook func(ctx context.Context, paths []string)

type Store struct {
	db    *gorm.DB
	hooks []CommitHook
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OnCommit registers fn to run after every successful commit that touched at
// least one path. Hooks never run for aborted scopes.
func (s *Store) OnCommit(fn CommitHook) {
	s.hooks = append(s.hooks, fn)
}

// DB returns a read handle bound to ctx for queries outside any scope.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Atomic runs work in one transaction. Every write made through tx commits
// together when work returns nil; any error rolls all of them back and is
// returned unchanged.
func (s *Store) Atomic(ctx context.Context, work func(tx *Tx) error) error {
	if InScope(ctx) {
		return apperr.Internal(ErrNestedScope)
	}

	scoped := context.WithValue(ctx, scopeKey{}, true)
	var touched []string

	err := s.db.WithContext(scoped).Transaction(func(gtx *gorm.DB) error {
		tx := &Tx{db: gtx, ctx: scoped}
		if err := work(tx); err != nil {
			return err
		}
		touched = tx.paths
		return nil
	})
	if err != nil {
		metrics.AtomicAbort()
		return err
	}

	if len(touched) > 0 {
		for _, hook := range s.hooks {
			hook(ctx, touched)
		}
	}
	return nil
}

// InScope reports whether ctx belongs to an open atomic scope.
func InScope(ctx context.Context) bool {
	v, _ := ctx.Value(scopeKey{}).(bool)
	return v
}

// Tx is the unit of work of one atomic scope.
type Tx struct {
	db    *gorm.DB
	ctx   context.Context
	paths []string
}

// Context returns the scope's context.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Touch records logical paths whose cached views become stale when the
// scope commits.
func (tx *Tx) Touch(paths ...string) {
	for _, p := range paths {
		if p != "" && !slices.Contains(tx.paths, p) {
			tx.paths = append(tx.paths, p)
		}
	}
}

// Touched returns the paths recorded so far.
func (tx *Tx) Touched() []string {
	return slices.Clone(tx.paths)
}

// counter columns that may be adjusted with addCounter.
var counterColumns = map[string]bool{
	"upvotes":    true,
	"downvotes":  true,
	"answers":    true,
	"views":      true,
	"questions":  true,
	"reputation": true,
}

// addCounter applies column = column + delta as a single statement. A missing
// row is reported as not found so the scope aborts.
func (tx *Tx) addCounter(model any, resource string, id int, column string, delta int) error {
	if !counterColumns[column] {
		return apperr.Internal(fmt.Errorf("unknown counter column %q", column))
	}
	if delta == 0 {
		return nil
	}
	res := tx.db.Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update %s.%s: %w", resource, column, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	return err
}
