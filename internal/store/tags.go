package store

import (
	"fmt"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// QuestionTags returns the question's tags in link order.
func (tx *Tx) QuestionTags(questionID int) ([]models.Tag, error) {
	var tags []models.Tag
	err := tx.db.Model(&models.Tag{}).
		Joins("JOIN tag_questions ON tag_questions.tag_id = tags.id").
		Where("tag_questions.question_id = ?", questionID).
		Order("tag_questions.position, tag_questions.id").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("load question tags: %w", err)
	}
	return tags, nil
}

// upsertTagSQL relies on the unique index over lower(name): concurrent
// callers creating the same name converge on one row.
const upsertTagSQL = `
INSERT INTO tags (name, questions, created_at, updated_at)
VALUES (?, 1, now(), now())
ON CONFLICT ((lower(name))) DO UPDATE
SET questions = tags.questions + 1, updated_at = now()
RETURNING id, name, questions, created_at, updated_at`

// UpsertTag finds the tag matching name case-insensitively and increments its
// question count, or creates it with a count of one.
func (tx *Tx) UpsertTag(name string) (*models.Tag, error) {
	var tag models.Tag
	if err := tx.db.Raw(upsertTagSQL, name).Scan(&tag).Error; err != nil {
		return nil, fmt.Errorf("upsert tag %q: %w", name, err)
	}
	return &tag, nil
}

func (tx *Tx) AddTagCounter(id int, delta int) error {
	return tx.addCounter(&models.Tag{}, "tag", id, "questions", delta)
}

// NextTagPosition returns the position after the question's last link.
func (tx *Tx) NextTagPosition(questionID int) (int, error) {
	var next int
	err := tx.db.Model(&models.TagQuestion{}).
		Where("question_id = ?", questionID).
		Select("COALESCE(MAX(position) + 1, 0)").
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("next tag position: %w", err)
	}
	return next, nil
}

func (tx *Tx) LinkTag(tagID, questionID, position int) error {
	link := models.TagQuestion{TagID: tagID, QuestionID: questionID, Position: position}
	if err := tx.db.Create(&link).Error; err != nil {
		return fmt.Errorf("link tag: %w", err)
	}
	return nil
}

// UnlinkTags removes the given tags from the question. With no tag ids every
// link of the question is removed.
func (tx *Tx) UnlinkTags(questionID int, tagIDs ...int) error {
	q := tx.db.Where("question_id = ?", questionID)
	if len(tagIDs) > 0 {
		q = q.Where("tag_id IN ?", tagIDs)
	}
	if err := q.Delete(&models.TagQuestion{}).Error; err != nil {
		return fmt.Errorf("unlink tags: %w", err)
	}
	return nil
}
