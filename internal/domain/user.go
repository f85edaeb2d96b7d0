package domain

import "time"

// User is an account row. Password holds the bcrypt hash.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	DisplayName string `gorm:"not null" json:"displayName"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Project is the owning container for a canvas. The rest of the project
// lifecycle (billing, documents, scheduling) lives outside this service;
// only ownership is consulted here for authorization.
type Project struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	OwnerID string `gorm:"index;not null" json:"ownerId"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Document is a persisted file record, used by the export-as-document path.
type Document struct {
	ID          string `gorm:"primaryKey" json:"id"`
	ProjectID   string `gorm:"index;not null" json:"projectId"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `gorm:"not null" json:"fileName"`
	FilePath    string `gorm:"not null" json:"filePath"`
	FileSize    int64  `json:"fileSize"`
	MimeType    string `json:"mimeType"`
	UploadedBy  string `gorm:"not null" json:"uploadedBy"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
