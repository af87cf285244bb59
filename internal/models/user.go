package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName  string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName   string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	AssignedTasks []Task        `gorm:"foreignKey:AssignedTo" json:"-"`
	CreatedTasks  []Task        `gorm:"foreignKey:CreatedBy" json:"-"`
	Comments      []TaskComment `gorm:"foreignKey:UserID" json:"-"`
}

// FullName is the display name used in task and comment projections.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
