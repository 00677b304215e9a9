package httpdto

import (
	"time"

	"docuchat/internal/domain/file"
)

// RequestUploadRequest is used for POST /v1/files/upload-url
type RequestUploadRequest struct {
	Filename     string `json:"filename" binding:"required"`
	ContentType  string `json:"content_type" binding:"required"`
	DeclaredSize int64  `json:"declared_size" binding:"required"`
	ProjectID    string `json:"project_id,omitempty"`
}

// UploadGrantResponse is returned after requesting an upload
type UploadGrantResponse struct {
	FileID     string            `json:"file_id"`
	StorageKey string            `json:"storage_key"`
	UploadURL  string            `json:"upload_url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	ExpiresIn  int64             `json:"expires_in"`
	Status     string            `json:"upload_status"`
}

// ConfirmUploadRequest is used for POST /v1/files/:id/confirm
type ConfirmUploadRequest struct {
	ActualSize *int64 `json:"actual_size,omitempty"`
}

// DownloadGrantResponse is returned for GET /v1/files/:id/download-url
type DownloadGrantResponse struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FileDTO represents a file record in API responses
type FileDTO struct {
	FileID           string `json:"file_id"`
	ProjectID        string `json:"project_id,omitempty"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	DeclaredSize     int64  `json:"declared_size"`
	ConfirmedSize    *int64 `json:"confirmed_size,omitempty"`
	UploadStatus     string `json:"upload_status"`
	ProcessingStatus string `json:"processing_status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ListFilesResponse is returned when listing files
type ListFilesResponse struct {
	Files []FileDTO `json:"files"`
	Total int       `json:"total"`
}

func NewFileDTO(f file.File) FileDTO {
	dto := FileDTO{
		FileID:           f.ID.String(),
		OriginalFilename: f.OriginalFilename,
		ContentType:      f.ContentType,
		DeclaredSize:     f.DeclaredSize,
		ConfirmedSize:    f.ConfirmedSize,
		UploadStatus:     f.UploadStatus,
		ProcessingStatus: f.ProcessingStatus,
		CreatedAt:        f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        f.UpdatedAt.Format(time.RFC3339),
	}
	if f.ProjectID.Valid {
		dto.ProjectID = f.ProjectID.UUID.String()
	}
	return dto
}
