package store

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func (tx *Tx) CreateAnswer(a *models.Answer) error {
	if err := tx.db.Create(a).Error; err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

// LockAnswer loads an answer and holds a row lock until the scope ends.
func (tx *Tx) LockAnswer(id int) (*models.Answer, error) {
	var a models.Answer
	err := tx.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if err != nil {
		return nil, notFound(err, "answer")
	}
	return &a, nil
}

// AnswerIDs lists the ids of every answer to a question.
func (tx *Tx) AnswerIDs(questionID int) ([]int, error) {
	var ids []int
	err := tx.db.Model(&models.Answer{}).
		Where("question_id = ?", questionID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list answer ids: %w", err)
	}
	return ids, nil
}

func (tx *Tx) AddAnswerCounter(id int, column string, delta int) error {
	return tx.addCounter(&models.Answer{}, "answer", id, column, delta)
}

// DeleteAnswers removes the answers with the given ids.
func (tx *Tx) DeleteAnswers(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.db.Where("id IN ?", ids).Delete(&models.Answer{}).Error; err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}
