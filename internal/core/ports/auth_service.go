package ports

import (
	"context"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// RegisterInput carries the data needed to open a client account. Staff
// accounts are provisioned by the operator, never self-registered.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
