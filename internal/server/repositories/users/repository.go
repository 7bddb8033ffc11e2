// Package users persists family members for the authentication
// collaborator.
package users

import (
	"context"

	"github.com/ddanilenko/famledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
