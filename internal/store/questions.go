package store

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func (tx *Tx) CreateQuestion(q *models.Question) error {
	if err := tx.db.Create(q).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Question loads a question by id.
func (tx *Tx) Question(id int) (*models.Question, error) {
	var q models.Question
	if err := tx.db.First(&q, id).Error; err != nil {
		return nil, notFound(err, "question")
	}
	return &q, nil
}

// LockQuestion loads a question and holds a row lock until the scope ends.
func (tx *Tx) LockQuestion(id int) (*models.Question, error) {
	var q models.Question
	err := tx.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error
	if err != nil {
		return nil, notFound(err, "question")
	}
	return &q, nil
}

// UpdateQuestion writes the given columns.
func (tx *Tx) UpdateQuestion(id int, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := tx.db.Model(&models.Question{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update question: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("question")
	}
	return nil
}

// AddQuestionCounter atomically adds delta to one of the question's counters.
func (tx *Tx) AddQuestionCounter(id int, column string, delta int) error {
	return tx.addCounter(&models.Question{}, "question", id, column, delta)
}

func (tx *Tx) DeleteQuestion(id int) error {
	if err := tx.db.Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
