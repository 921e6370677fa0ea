package models

import "time"

type Question struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"not null" json:"content"`
	AuthorID  int    `gorm:"index;not null" json:"author_id"`
	Upvotes   int    `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int    `gorm:"not null;default:0" json:"downvotes"`
	Answers   int    `gorm:"not null;default:0" json:"answers"`
	Views     int    `gorm:"not null;default:0" json:"views"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Loaded from tag_questions ordered by position.
	Tags   []TagRef `gorm:"-" json:"tags"`
	Author *Author  `gorm:"-" json:"author,omitempty"`
}

type Answer struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	QuestionID int    `gorm:"index;not null" json:"question_id"`
	AuthorID   int    `gorm:"index;not null" json:"author_id"`
	Content    string `gorm:"not null" json:"content"`
	Upvotes    int    `gorm:"not null;default:0" json:"upvotes"`
	Downvotes  int    `gorm:"not null;default:0" json:"downvotes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *Author `gorm:"-" json:"author,omitempty"`
}

// Collection marks a question saved by a user.
type Collection struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	AuthorID   int       `gorm:"uniqueIndex:idx_collections_author_question;not null" json:"author_id"`
	QuestionID int       `gorm:"uniqueIndex:idx_collections_author_question;not null" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
