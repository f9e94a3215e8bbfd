package service

import (
	"context"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/policy"
	"quill/internal/repository"
	"quill/internal/validation"
)

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// UserService handles profile business logic.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile returns the user behind a username.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// UpdateProfile edits a profile. A profile belongs to exactly one user; any
// other actor is denied. Username and email must stay unique across users,
// the actor's own current values excepted.
func (s *UserService) UpdateProfile(ctx context.Context, userID, actorID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModify(user, actorID) {
		observability.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return nil, models.NewUnauthorizedError("You can only edit your own profile")
	}

	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if input.Username != user.Username {
		existing, err := s.users.GetByUsername(ctx, input.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewValidationError("Username already taken")
		}
	}
	if input.Email != user.Email {
		existing, err := s.users.GetByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, models.NewValidationError("Email already taken")
		}
	}

	user.Username = input.Username
	user.Email = input.Email
	user.FirstName = input.FirstName
	user.LastName = input.LastName

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
