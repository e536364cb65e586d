package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/models"

	"github.com/google/uuid"
)

// UserStore is the user repository surface the admin console needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

type UserService struct {
	userRepo UserStore
}

func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create registers a user with the given role, defaulting to the plain user role
func (s *UserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.CreateUserResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrEmailTaken
	}

	hash := sha256.Sum256([]byte(req.Password))

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: fmt.Sprintf("%x", hash),
		FullName:     req.FullName,
		Role:         role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.CreateUserResponse{ID: user.ID}, nil
}
