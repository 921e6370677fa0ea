package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// Collection returns the actor's saved marker for a question, or nil.
func (tx *Tx) Collection(authorID, questionID int) (*models.Collection, error) {
	var c models.Collection
	err := tx.db.Where("author_id = ? AND question_id = ?", authorID, questionID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	return &c, nil
}

func (tx *Tx) CreateCollection(c *models.Collection) error {
	if err := tx.db.Create(c).Error; err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (tx *Tx) DeleteCollection(id int) error {
	if err := tx.db.Delete(&models.Collection{}, id).Error; err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// DeleteCollectionsOf removes every saved marker for a question.
func (tx *Tx) DeleteCollectionsOf(questionID int) error {
	if err := tx.db.Where("question_id = ?", questionID).Delete(&models.Collection{}).Error; err != nil {
		return fmt.Errorf("delete collections: %w", err)
	}
	return nil
}

// AppendInteraction adds a row to the interaction log.
func (tx *Tx) AppendInteraction(i *models.Interaction) error {
	if err := tx.db.Create(i).Error; err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// CountInteractions counts log rows for (user, action, target).
func (tx *Tx) CountInteractions(userID int, action models.InteractionAction, actionID int, actionType models.TargetType) (int64, error) {
	var n int64
	err := tx.db.Model(&models.Interaction{}).
		Where("user_id = ? AND action = ? AND action_id = ? AND action_type = ?", userID, action, actionID, actionType).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return n, nil
}

func (tx *Tx) AddReputation(userID int, delta int) error {
	return tx.addCounter(&models.User{}, "user", userID, "reputation", delta)
}

func (tx *Tx) CreateUser(u *models.User) error {
	if err := tx.db.Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmail returns the user with the given email, or nil.
func (tx *Tx) UserByEmail(email string) (*models.User, error) {
	var u models.User
	err := tx.db.Where("lower(email) = lower(?)", email).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// UsernameTaken reports whether a username is already in use.
func (tx *Tx) UsernameTaken(username string) (bool, error) {
	var n int64
	if err := tx.db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

func (tx *Tx) UpdateUser(id int, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := tx.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (tx *Tx) CreateAccount(a *models.Account) error {
	if err := tx.db.Create(a).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Account returns the account for a provider identity, or nil.
func (tx *Tx) Account(provider, providerAccountID string) (*models.Account, error) {
	var a models.Account
	err := tx.db.Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &a, nil
}
