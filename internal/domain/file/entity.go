package file

import (
	"time"

	"github.com/google/uuid"
)

const (
	UploadPending  = "pending"
	UploadComplete = "uploaded"
	UploadFailed   = "failed"

	ProcessingPending   = "pending"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// File represents the files table. upload_status and processing_status are
// independent axes: a file may be uploaded but never processed.
type File struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"file_id"`
	OwnerID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"owner_id"`
	ProjectID        uuid.NullUUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	OriginalFilename string        `gorm:"not null" json:"original_filename"`
	ContentType      string        `gorm:"not null" json:"content_type"`
	StorageKey       string        `gorm:"not null;size:512" json:"storage_key"`
	DeclaredSize     int64         `gorm:"not null" json:"declared_size"`
	ConfirmedSize    *int64        `json:"confirmed_size,omitempty"`
	UploadStatus     string        `gorm:"not null;default:'pending'" json:"upload_status"`
	ProcessingStatus string        `gorm:"not null;default:'pending'" json:"processing_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (File) TableName() string {
	return "files"
}

func (f File) IsUploaded() bool {
	return f.UploadStatus == UploadComplete
}
