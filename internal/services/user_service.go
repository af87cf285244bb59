package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/repository"
	"github.com/Deepee26/TMS/internal/utils"
)

var (
	ErrSelfDelete  = errors.New("cannot delete your own account")
	ErrInvalidRole = errors.New("invalid role")
)

// UserService covers admin user management and self-service profile updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns users newest-first.
func (s *UserService) List(params utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListAssignable returns verified non-admin users for task assignment.
func (s *UserService) ListAssignable() ([]models.User, error) {
	users, err := s.userRepo.ListAssignable()
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable users: %w", err)
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateInput carries the admin-editable fields of a user.
type UpdateInput struct {
	FirstName  string
	LastName   string
	Role       models.Role
	IsVerified bool
}

// Update applies the admin-editable fields to a user.
func (s *UserService) Update(id uint64, input UpdateInput) (*models.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, ErrMissingFields
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.Update(id, firstName, lastName, input.Role, input.IsVerified)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ToggleVerification flips the verification flag and returns the new state.
func (s *UserService) ToggleVerification(id uint64) (*models.User, error) {
	user, err := s.userRepo.ToggleVerification(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to toggle verification: %w", err)
	}
	return user, nil
}

// Delete removes a user. Self-deletion is rejected before any row is touched.
func (s *UserService) Delete(actorID, targetID uint64) error {
	if actorID == targetID {
		return ErrSelfDelete
	}

	removed, err := s.userRepo.Delete(targetID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !removed {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies self-service profile changes, rejecting an email
// already held by another user.
func (s *UserService) UpdateProfile(userID uint64, firstName, lastName, email string) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.TrimSpace(email)
	if firstName == "" || lastName == "" || email == "" {
		return nil, ErrMissingFields
	}

	if existing, err := s.userRepo.FindByEmail(email); err == nil {
		if existing.ID != userID {
			return nil, ErrEmailTaken
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user, err := s.userRepo.UpdateProfile(userID, firstName, lastName, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
