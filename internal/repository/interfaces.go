package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/domain/file"
	"docuchat/internal/domain/processing"
)

// FileFilter narrows ListByOwner results. Zero values mean "no filter".
type FileFilter struct {
	UploadStatus string
	ProjectID    uuid.NullUUID
}

type FileRepository interface {
	Create(ctx context.Context, f *file.File) error
	GetByID(ctx context.Context, id uuid.UUID) (file.File, error)
	Update(ctx context.Context, f file.File) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter FileFilter) ([]file.File, error)
	SetProcessingStatus(ctx context.Context, id uuid.UUID, status string) error
}

type ProcessingRepository interface {
	CreateSession(ctx context.Context, s *processing.Session) error
	GetSessionByID(ctx context.Context, id uuid.UUID) (processing.Session, error)
	GetSessionByFileID(ctx context.Context, fileID uuid.UUID) (processing.Session, error)
	UpdateSession(ctx context.Context, s processing.Session) error
	DeleteSessionByFileID(ctx context.Context, fileID uuid.UUID) error

	// AppendEntry allocates the next sequence number and inserts the entry in
	// one transaction, so concurrent appends against the same session are
	// serialized at the point of sequence assignment only.
	AppendEntry(ctx context.Context, processingID uuid.UUID, question, answer string, askedAt time.Time) (processing.Entry, error)
	ListEntries(ctx context.Context, processingID uuid.UUID) ([]processing.Entry, error)
}
