package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Deepee26/TMS/internal/constants"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/notifier"
	"github.com/Deepee26/TMS/internal/repository"
	"github.com/Deepee26/TMS/internal/utils"
)

var (
	ErrMissingFields        = errors.New("all fields are required")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountNotVerified   = errors.New("account is not verified, please contact administrator")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordMismatch     = errors.New("new passwords do not match")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailNotRegistered   = errors.New("email not registered")
	ErrNotifierUnavailable  = errors.New("email service is not configured")
	ErrInvalidResetToken    = errors.New("invalid or expired token")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles signup, login and the password lifecycle.
type AuthService struct {
	userRepo    repository.UserRepository
	notifier    notifier.Notifier
	resetSecret string
	baseURL     string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, n notifier.Notifier, resetSecret, baseURL string) *AuthService {
	if n == nil {
		n = notifier.Noop{}
	}
	return &AuthService{
		userRepo:    userRepo,
		notifier:    n,
		resetSecret: resetSecret,
		baseURL:     baseURL,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Signup creates a new unverified user with the default role. The account
// cannot log in until an administrator verifies it.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)

	if firstName == "" || lastName == "" || email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:      email,
		Password:   string(hashedPassword),
		FirstName:  firstName,
		LastName:   lastName,
		Role:       models.RoleUser,
		IsVerified: false,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user. Unknown
// email and wrong password produce the same error; an unverified account is
// reported distinctly, and that check runs before the password comparison.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ForgotPassword issues a short-lived reset token bound to the email and
// mails the reset link.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmailNotRegistered
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if !s.notifier.Configured() {
		return ErrNotifierUnavailable
	}

	token, err := utils.GenerateResetToken(user.Email, s.resetSecret)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if err := s.notifier.SendPasswordReset(user.Email, user.FirstName, resetLink); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// ResetPassword verifies a reset token and stores the new password. Any
// verification failure maps to the same error.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	claims, err := utils.ParseResetToken(token, s.resetSecret)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByEmail(claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.userRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ChangePassword verifies the current password and stores a new one.
func (s *AuthService) ChangePassword(userID uint64, current, newPassword, confirm string) error {
	if current == "" || newPassword == "" || confirm == "" {
		return ErrMissingFields
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrCurrentPasswordWrong
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.userRepo.UpdatePassword(userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
