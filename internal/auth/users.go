package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitalops/launchdash/internal/config"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/store"
)

// Users verifies credentials against the entity store and seeds configured
// accounts at startup.
type Users struct {
	store store.Store
}

// NewUsers creates a Users service over the given store.
func NewUsers(st store.Store) *Users {
	return &Users{store: st}
}

// Authenticate verifies email and password and returns the caller identity.
// All failure modes collapse into ErrInvalidCredentials so a caller cannot
// probe for account existence.
func (u *Users) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Errorf("User lookup failed for %s: %v", email, err)
		}
		return Identity{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{Email: user.Email, Roles: []string(user.Roles)}, nil
}

// Seed creates the configured users if they do not exist yet. Existing rows
// are left untouched, so restarting the process never resets passwords.
func (u *Users) Seed(ctx context.Context, users []config.UserConfig) error {
	for _, uc := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(uc.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", uc.Email, err)
		}

		roles := uc.Roles
		if len(roles) == 0 {
			roles = []string{models.RoleUser}
		}

		user := &models.User{
			ID:           uuid.New(),
			Email:        uc.Email,
			PasswordHash: string(hash),
			Roles:        models.StringArray(roles),
		}
		if err := u.store.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", uc.Email, err)
		}
		logger.Infof("Ensured user account: %s", uc.Email)
	}
	return nil
}
