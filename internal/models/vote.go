package models

import "time"

type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Vote model - at most one per (author, action id, action type)
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	AuthorID   int        `gorm:"uniqueIndex:idx_votes_author_action;not null" json:"author_id"`
	ActionID   int        `gorm:"uniqueIndex:idx_votes_author_action;index:idx_votes_action;not null" json:"action_id"`
	ActionType TargetType `gorm:"uniqueIndex:idx_votes_author_action;index:idx_votes_action;type:varchar(16);not null" json:"action_type"`
	VoteType   VoteType   `gorm:"type:varchar(16);not null" json:"vote_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// VoteReceipt remembers the outcome of a vote request carrying an
// idempotency key so a retried request is answered without reapplying it.
type VoteReceipt struct {
	IdempotencyKey string     `gorm:"primaryKey;type:uuid" json:"idempotency_key"`
	AuthorID       int        `gorm:"not null" json:"author_id"`
	ActionID       int        `gorm:"not null" json:"action_id"`
	ActionType     TargetType `gorm:"type:varchar(16);not null" json:"action_type"`
	VoteType       VoteType   `gorm:"type:varchar(16);not null" json:"vote_type"`
	Upvoted        bool       `json:"upvoted"`
	Downvoted      bool       `json:"downvoted"`
	CreatedAt      time.Time  `json:"created_at"`
}
