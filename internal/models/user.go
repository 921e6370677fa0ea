package models

import "time"

type User struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	Username   string `gorm:"uniqueIndex;not null" json:"username"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Bio        string `json:"bio,omitempty"`
	Image      string `json:"image,omitempty"`
	Location   string `json:"location,omitempty"`
	Portfolio  string `json:"portfolio,omitempty"`
	Reputation int    `gorm:"not null;default:0" json:"reputation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the public projection of a user embedded in questions and answers.
type Author struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Account links a user to a sign-in provider. Credential accounts carry a
// bcrypt hash, OAuth accounts do not.
type Account struct {
	ID                int    `gorm:"primaryKey" json:"id"`
	UserID            int    `gorm:"index;not null" json:"user_id"`
	Name              string `gorm:"not null" json:"name"`
	Image             string `json:"image,omitempty"`
	Password          string `json:"-"`
	Provider          string `gorm:"uniqueIndex:idx_accounts_provider;not null" json:"provider"`
	ProviderAccountID string `gorm:"uniqueIndex:idx_accounts_provider;not null" json:"provider_account_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	ProviderCredentials = "credentials"
	ProviderGitHub      = "github"
	ProviderGoogle      = "google"
)
