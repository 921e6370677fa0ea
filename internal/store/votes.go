package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// FindVote returns the actor's vote on a target, or nil when there is none.
// The row is locked for the rest of the scope.
func (tx *Tx) FindVote(authorID, targetID int, targetType models.TargetType) (*models.Vote, error) {
	var v models.Vote
	err := tx.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("author_id = ? AND action_id = ? AND action_type = ?", authorID, targetID, targetType).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return &v, nil
}

func (tx *Tx) CreateVote(v *models.Vote) error {
	if err := tx.db.Create(v).Error; err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

func (tx *Tx) SetVoteType(id int, voteType models.VoteType) error {
	err := tx.db.Model(&models.Vote{}).Where("id = ?", id).Update("vote_type", voteType).Error
	if err != nil {
		return fmt.Errorf("update vote: %w", err)
	}
	return nil
}

func (tx *Tx) DeleteVote(id int) error {
	if err := tx.db.Delete(&models.Vote{}, id).Error; err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

// DeleteVotesOn removes every vote cast on the given targets.
func (tx *Tx) DeleteVotesOn(targetType models.TargetType, targetIDs ...int) error {
	if len(targetIDs) == 0 {
		return nil
	}
	err := tx.db.Where("action_type = ? AND action_id IN ?", targetType, targetIDs).
		Delete(&models.Vote{}).Error
	if err != nil {
		return fmt.Errorf("delete %s votes: %w", targetType, err)
	}
	return nil
}

// AddTargetCounter adjusts upvotes or downvotes on a question or answer.
func (tx *Tx) AddTargetCounter(targetType models.TargetType, id int, column string, delta int) error {
	switch targetType {
	case models.TargetQuestion:
		return tx.AddQuestionCounter(id, column, delta)
	case models.TargetAnswer:
		return tx.AddAnswerCounter(id, column, delta)
	default:
		return apperr.Internal(fmt.Errorf("unknown target type %q", targetType))
	}
}

// TargetAuthor returns the author of a question or answer.
func (tx *Tx) TargetAuthor(targetType models.TargetType, id int) (int, error) {
	var model any
	switch targetType {
	case models.TargetQuestion:
		model = &models.Question{}
	case models.TargetAnswer:
		model = &models.Answer{}
	default:
		return 0, apperr.Internal(fmt.Errorf("unknown target type %q", targetType))
	}
	var authorIDs []int
	if err := tx.db.Model(model).Where("id = ?", id).Pluck("author_id", &authorIDs).Error; err != nil {
		return 0, fmt.Errorf("load %s author: %w", targetType, err)
	}
	if len(authorIDs) == 0 {
		return 0, apperr.NotFound(string(targetType))
	}
	return authorIDs[0], nil
}

// InsertReceipt stores r unless its key is already taken. It reports whether
// the row was written.
func (tx *Tx) InsertReceipt(r *models.VoteReceipt) (bool, error) {
	res := tx.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r)
	if res.Error != nil {
		return false, fmt.Errorf("insert vote receipt: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateReceipt records the outcome on a receipt written earlier in the scope.
func (tx *Tx) UpdateReceipt(key string, upvoted, downvoted bool) error {
	err := tx.db.Model(&models.VoteReceipt{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{"upvoted": upvoted, "downvoted": downvoted}).Error
	if err != nil {
		return fmt.Errorf("update vote receipt: %w", err)
	}
	return nil
}

func (tx *Tx) Receipt(key string) (*models.VoteReceipt, error) {
	var r models.VoteReceipt
	if err := tx.db.Where("idempotency_key = ?", key).Take(&r).Error; err != nil {
		return nil, notFound(err, "vote receipt")
	}
	return &r, nil
}
