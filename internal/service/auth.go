package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/auth"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/metrics"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/validation"
)

// Session is returned by every sign-in.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type SignUpParams struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// SignUp creates a user with a credentials account.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) (_ *Session, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation("sign_up", started, err) }()

	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var user models.User
	err = s.store.Atomic(ctx, func(tx *store.Tx) error {
		existing, err := tx.UserByEmail(p.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("user already exists")
		}
		taken, err := tx.UsernameTaken(p.Username)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("username already exists")
		}

		user = models.User{Name: p.Name, Username: p.Username, Email: strings.ToLower(p.Email)}
		if err := tx.CreateUser(&user); err != nil {
			return err
		}
		if err := tx.CreateAccount(&models.Account{
			UserID:            user.ID,
			Name:              p.Name,
			Password:          hash,
			Provider:          models.ProviderCredentials,
			ProviderAccountID: user.Email,
		}); err != nil {
			return err
		}
		tx.Touch(events.CommunityPath)
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return s.session(user)
}

type SignInParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignIn checks credentials and returns a session token.
func (s *Service) SignIn(ctx context.Context, p SignInParams) (*Session, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db(ctx).Where("email = ?", strings.ToLower(p.Email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	var account models.Account
	err = s.db(ctx).
		Where("provider = ? AND provider_account_id = ?", models.ProviderCredentials, user.Email).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, apperr.From(err)
	}

	if err := auth.CheckPassword(account.Password, p.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthorized()
		}
		return nil, apperr.Internal(err)
	}
	return s.session(user)
}

type OAuthUser struct {
	Name     string `json:"name" validate:"required,max=50"`
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Image    string `json:"image" validate:"omitempty,url"`
}

type OAuthParams struct {
	Provider          string    `json:"provider" validate:"required,oneof=github google"`
	ProviderAccountID string    `json:"providerAccountId" validate:"required"`
	User              OAuthUser `json:"user"`
}

// SignInWithOAuth signs in a user already verified by an OAuth provider,
// creating the user and the provider account on first sign-in.
func (s *Service) SignInWithOAuth(ctx context.Context, p OAuthParams) (_ *Session, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation("sign_in_oauth", started, err) }()

	if err := validation.Struct(&p); err != nil {
		return nil, err
	}

	var user models.User
	err = s.store.Atomic(ctx, func(tx *store.Tx) error {
		existing, err := tx.UserByEmail(p.User.Email)
		if err != nil {
			return err
		}

		if existing == nil {
			username, err := freeUsername(tx, auth.Slugify(p.User.Username))
			if err != nil {
				return err
			}
			user = models.User{
				Name:     p.User.Name,
				Username: username,
				Email:    strings.ToLower(p.User.Email),
				Image:    p.User.Image,
			}
			if err := tx.CreateUser(&user); err != nil {
				return err
			}
			tx.Touch(events.CommunityPath)
		} else {
			user = *existing
			fields := map[string]any{}
			if user.Name != p.User.Name {
				fields["name"] = p.User.Name
				user.Name = p.User.Name
			}
			if p.User.Image != "" && user.Image != p.User.Image {
				fields["image"] = p.User.Image
				user.Image = p.User.Image
			}
			if err := tx.UpdateUser(user.ID, fields); err != nil {
				return err
			}
			if len(fields) > 0 {
				// Question pages embed the author's name and image.
				tx.Touch(events.ProfilePath(user.ID), events.AllQuestionsPath)
			}
		}

		account, err := tx.Account(p.Provider, p.ProviderAccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return tx.CreateAccount(&models.Account{
				UserID:            user.ID,
				Name:              p.User.Name,
				Image:             p.User.Image,
				Provider:          p.Provider,
				ProviderAccountID: p.ProviderAccountID,
			})
		}
		if account.UserID != user.ID {
			return apperr.Conflict("provider account belongs to another user")
		}
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return s.session(user)
}

// freeUsername returns base, or base with a short suffix when it is taken.
func freeUsername(tx *store.Tx, base string) (string, error) {
	if base == "" {
		base = "user"
	}
	candidate := base
	for range 5 {
		taken, err := tx.UsernameTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:6]
	}
	return "", apperr.Conflict("could not find a free username")
}

func (s *Service) session(user models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &Session{Token: token, User: user}, nil
}

// Me returns the signed-in user.
func (s *Service) Me(ctx context.Context, actor Actor) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthorized()
	}
	var user models.User
	if err := s.db(ctx).First(&user, actor.UserID).Error; err != nil {
		return nil, apperr.From(err)
	}
	return &user, nil
}
