package models

import "time"

// TaskAttachment is part of the persisted schema but has no operations yet.
// TODO: wire upload/download handlers once file storage is decided.
type TaskAttachment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;index" json:"task_id"`
	Filename   string    `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath   string    `gorm:"type:varchar(500);not null" json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedBy uint64    `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Task     *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Uploader *User `gorm:"foreignKey:UploadedBy;constraint:OnDelete:CASCADE" json:"-"`
}
