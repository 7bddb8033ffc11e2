// Package services holds the application services sitting between the HTTP
// layer and the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/dbx"
	"github.com/ddanilenko/famledger/internal/server/auth"
	"github.com/ddanilenko/famledger/internal/server/config"
	"github.com/ddanilenko/famledger/internal/server/models"
	"github.com/ddanilenko/famledger/internal/server/repositories/repomanager"
)

const minPasswordLength = 8

// UserService implements the authentication collaborator: signup, login
// and token issue. It establishes the {familyID, userID} scope every sync
// request runs under.
type UserService struct {
	db     dbx.DBTX
	rm     repomanager.RepositoryManager
	config *config.Config
}

func NewUserService(db dbx.DBTX, rm repomanager.RepositoryManager, config *config.Config) *UserService {
	return &UserService{db: db, rm: rm, config: config}
}

// Register creates a user in a fresh family scope and returns the user
// together with an access token.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		FamilyID:     uuid.NewString(),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
	}

	user, err = s.rm.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, user.FamilyID, []byte(s.config.SecretKey), s.config.TokenValidityDuration)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login verifies credentials and issues an access token. Both an unknown
// email and a wrong password map to ErrorUnauthorized so the response does
// not leak which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	return auth.GenerateToken(user.ID, user.FamilyID, []byte(s.config.SecretKey), s.config.TokenValidityDuration)
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	return nil
}
