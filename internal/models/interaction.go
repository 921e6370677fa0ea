package models

import "time"

type InteractionAction string

const (
	ActionView     InteractionAction = "view"
	ActionUpvote   InteractionAction = "upvote"
	ActionDownvote InteractionAction = "downvote"
	ActionPost     InteractionAction = "post"
	ActionDelete   InteractionAction = "delete"
)

// Interaction is an append-only log row; rows are never updated or deleted.
type Interaction struct {
	ID         int               `gorm:"primaryKey" json:"id"`
	UserID     int               `gorm:"index:idx_interactions_user;not null" json:"user_id"`
	Action     InteractionAction `gorm:"type:varchar(16);not null" json:"action"`
	ActionID   int               `gorm:"not null" json:"action_id"`
	ActionType TargetType        `gorm:"type:varchar(16);not null" json:"action_type"`
	CreatedAt  time.Time         `gorm:"index:idx_interactions_user" json:"created_at"`
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&Account{},
		&Question{},
		&Answer{},
		&Tag{},
		&TagQuestion{},
		&Vote{},
		&VoteReceipt{},
		&Collection{},
		&Interaction{},
	}
}
