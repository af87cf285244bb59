package repository

import (
	"github.com/Deepee26/TMS/internal/database"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create persists a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users newest-first with pagination
func (r *GormUserRepository) List(params utils.PaginationParams) ([]models.User, int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := r.db.
		Order("created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ListAssignable lists verified non-admin users for task assignment
func (r *GormUserRepository) ListAssignable() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("is_verified = ? AND role = ?", true, models.RoleUser).
		Order("first_name, last_name").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies the admin-editable fields
func (r *GormUserRepository) Update(id uint64, firstName, lastName string, role models.Role, isVerified bool) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Role = role
	user.IsVerified = isVerified

	if err := r.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the self-service profile fields
func (r *GormUserRepository) UpdateProfile(id uint64, firstName, lastName, email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email

	if err := r.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ToggleVerification flips is_verified and returns the updated user
func (r *GormUserRepository) ToggleVerification(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	user.IsVerified = !user.IsVerified

	if err := r.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword stores a new password hash
func (r *GormUserRepository) UpdatePassword(id uint64, passwordHash string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a user together with the relational fallout: tasks assigned
// to the user keep existing without an assignee, tasks the user created are
// removed with their comments, and the user's own comments go with them.
func (r *GormUserRepository) Delete(id uint64) (bool, error) {
	removed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("assigned_to = ?", id).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}

		var createdTaskIDs []uint64
		if err := tx.Model(&models.Task{}).
			Where("created_by = ?", id).
			Pluck("id", &createdTaskIDs).Error; err != nil {
			return err
		}

		if len(createdTaskIDs) > 0 {
			if err := tx.Where("task_id IN ?", createdTaskIDs).
				Delete(&models.TaskComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", createdTaskIDs).
				Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).
			Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}
