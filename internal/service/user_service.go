package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"propval/internal/domain"
	"propval/internal/port"
)

// CreateUserInput is the DTO for creating a user.
type CreateUserInput struct {
	Username string          `json:"username" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	FullName string          `json:"full_name" binding:"required"`
	Role     domain.UserRole `json:"role" binding:"required"`
}

// UpdateUserInput is the DTO for updating a user. Nil fields are left as-is.
type UpdateUserInput struct {
	Email    *string          `json:"email"`
	FullName *string          `json:"full_name"`
	Role     *domain.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
}

// UserService manages the users of one client. Every operation is scoped to
// the caller's clientID; there is no cross-client user surface.
type UserService interface {
	Create(ctx context.Context, clientID string, input CreateUserInput) (*domain.User, error)
	GetByID(ctx context.Context, clientID string, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, clientID string, offset, limit int) ([]domain.User, int, error)
	Update(ctx context.Context, clientID string, userID uuid.UUID, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, clientID string, userID uuid.UUID) error
}

type userService struct {
	repo port.UserRepository
}

// NewUserService creates a new UserService implementation.
func NewUserService(repo port.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Create(ctx context.Context, clientID string, input CreateUserInput) (*domain.User, error) {
	if !domain.ValidRoles[input.Role] {
		return nil, domain.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		ClientID:     clientID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         input.Role,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, clientID string, userID uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, clientID, userID)
}

func (s *userService) List(ctx context.Context, clientID string, offset, limit int) ([]domain.User, int, error) {
	return s.repo.ListByClient(ctx, clientID, offset, limit)
}

func (s *userService) Update(ctx context.Context, clientID string, userID uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, clientID, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Role != nil {
		if !domain.ValidRoles[*input.Role] {
			return nil, domain.ErrForbidden
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, clientID string, userID uuid.UUID) error {
	return s.repo.Delete(ctx, clientID, userID)
}
