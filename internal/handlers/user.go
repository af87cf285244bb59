package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Deepee26/TMS/internal/constants"
	"github.com/Deepee26/TMS/internal/dto"
	apierrors "github.com/Deepee26/TMS/internal/errors"
	"github.com/Deepee26/TMS/internal/middleware"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/services"
	"github.com/Deepee26/TMS/internal/utils"
)

// UserHandler serves admin user management and self-service profile routes.
type UserHandler struct {
	userService *services.UserService
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, authService *services.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

func parseUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return id, true
}

// ListUsers returns all users newest-first, without password hashes.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.List(params)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    dto.ToUserDTOs(users),
		"messages": utils.ConsumeFlashes(c),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListAssignableUsers returns verified non-admin users for task assignment.
func (h *UserHandler) ListAssignableUsers(c *gin.Context) {
	users, err := h.userService.ListAssignable()
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(users)})
}

// GetUser returns a single user.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser applies the admin-editable fields to a user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		FirstName  string `json:"first_name" binding:"required"`
		LastName   string `json:"last_name" binding:"required"`
		Role       string `json:"role" binding:"required"`
		IsVerified bool   `json:"is_verified"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Update(userID, services.UpdateInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       models.Role(req.Role),
		IsVerified: req.IsVerified,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	utils.AddFlash(c, "success", "User updated successfully")
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ToggleVerification flips the verification flag and returns the new state.
func (h *UserHandler) ToggleVerification(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.ToggleVerification(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	verb := "unverified"
	if user.IsVerified {
		verb = "verified"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "User " + verb + " successfully",
		"is_verified": user.IsVerified,
	})
}

// DeleteUser removes a user. Admins cannot delete their own account.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	targetID, ok := parseUserID(c)
	if !ok {
		return
	}

	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.userService.Delete(actorID, targetID); err != nil {
		respondUserError(c, err)
		return
	}

	utils.AddFlash(c, "success", "User deleted successfully")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetProfile returns the caller's own account.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":  dto.ToUserDTO(*user),
		"messages": utils.ConsumeFlashes(c),
	})
}

// UpdateProfile applies self-service profile changes and refreshes the
// session identity.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All fields are required")
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.FirstName, req.LastName, req.Email)
	if err != nil {
		respondUserError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyUserID, user.ID)
	session.Set(constants.SessionKeyRole, string(user.Role))
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	utils.AddFlash(c, "success", "Profile updated successfully")
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ChangePassword verifies the current password and stores a new one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All password fields are required")
		return
	}

	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	utils.AddFlash(c, "success", "Password changed successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email is already taken")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrSelfDelete):
		apierrors.Forbidden(c, err.Error())
	default:
		logrus.WithError(err).Error("user request failed")
		apierrors.InternalError(c, "")
	}
}
