package models

import "time"

// Tag names are unique case-insensitively; the expression index on
// lower(name) is created by database.Migrate.
type Tag struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Questions int       `gorm:"not null;default:0" json:"questions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagRef is the tag projection embedded in a question. It leaves out the
// usage count, which changes with other questions.
type TagRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Refs projects tags to TagRefs, keeping their order.
func Refs(tags []Tag) []TagRef {
	out := make([]TagRef, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagRef{ID: t.ID, Name: t.Name})
	}
	return out
}

// TagQuestion is the tag/question join row. Position keeps the question's
// tag order.
type TagQuestion struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	TagID      int       `gorm:"uniqueIndex:idx_tag_questions_pair;not null" json:"tag_id"`
	QuestionID int       `gorm:"uniqueIndex:idx_tag_questions_pair;index;not null" json:"question_id"`
	Position   int       `gorm:"not null" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
