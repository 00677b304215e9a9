package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docuchat/internal/domain/file"
	"docuchat/internal/repository"
	"docuchat/internal/storage"
	"docuchat/pkg/apperrors"
	"docuchat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobIssuer issues time-limited handles against the blob store and removes
// objects. Satisfied by *storage.Client.
type BlobIssuer interface {
	PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (storage.PresignedRequest, error)
	PresignGet(ctx context.Context, key string) (storage.PresignedRequest, error)
	DeleteObject(ctx context.Context, key string) error
}

type FileService struct {
	repo     repository.FileRepository
	procRepo repository.ProcessingRepository
	blob     BlobIssuer
	log      *logger.Logger
}

type RequestUploadInput struct {
	Filename     string
	ContentType  string
	DeclaredSize int64
	ProjectID    uuid.NullUUID
}

type UploadGrant struct {
	File    file.File
	Presign storage.PresignedRequest
}

func NewFileService(repo repository.FileRepository, procRepo repository.ProcessingRepository, blob BlobIssuer, log *logger.Logger) *FileService {
	return &FileService{repo: repo, procRepo: procRepo, blob: blob, log: log}
}

// RequestUpload issues a presigned PUT handle and persists the file record in
// pending. The record transitions to uploaded only via ConfirmUpload, never by
// polling the blob store.
func (s *FileService) RequestUpload(ctx context.Context, owner uuid.UUID, input RequestUploadInput) (UploadGrant, error) {
	if owner == uuid.Nil {
		return UploadGrant{}, apperrors.ErrNotFound
	}
	if strings.TrimSpace(input.Filename) == "" {
		return UploadGrant{}, fmt.Errorf("%w: filename is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(input.ContentType) == "" {
		return UploadGrant{}, fmt.Errorf("%w: content type is required", apperrors.ErrInvalidInput)
	}
	if input.DeclaredSize <= 0 {
		return UploadGrant{}, fmt.Errorf("%w: declared size must be positive", apperrors.ErrInvalidInput)
	}

	now := time.Now()
	f := file.File{
		ID:               uuid.New(),
		OwnerID:          owner,
		ProjectID:        input.ProjectID,
		OriginalFilename: input.Filename,
		ContentType:      input.ContentType,
		DeclaredSize:     input.DeclaredSize,
		UploadStatus:     file.UploadPending,
		ProcessingStatus: file.ProcessingPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.StorageKey = buildStorageKey(owner, f.ID, input.Filename, now)

	presigned, err := s.blob.PresignPut(ctx, f.StorageKey, input.ContentType, input.DeclaredSize)
	if err != nil {
		return UploadGrant{}, fmt.Errorf("%w: presign upload: %v", apperrors.ErrDependency, err)
	}

	if err := s.repo.Create(ctx, &f); err != nil {
		return UploadGrant{}, err
	}

	s.log.InfoCtx(ctx, "upload requested",
		zap.String("file_id", f.ID.String()),
		zap.String("storage_key", f.StorageKey))

	return UploadGrant{File: f, Presign: presigned}, nil
}

// ConfirmUpload transitions pending -> uploaded. Re-confirming an uploaded
// file returns the current record unchanged, which tolerates client retries
// after a dropped response.
func (s *FileService) ConfirmUpload(ctx context.Context, owner, fileID uuid.UUID, actualSize *int64) (file.File, error) {
	f, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return file.File{}, err
	}

	if f.UploadStatus == file.UploadComplete {
		return f, nil
	}

	f.UploadStatus = file.UploadComplete
	if actualSize != nil && *actualSize > 0 {
		f.ConfirmedSize = actualSize
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return file.File{}, err
	}

	s.log.InfoCtx(ctx, "upload confirmed", zap.String("file_id", f.ID.String()))
	return f, nil
}

func (s *FileService) GetFile(ctx context.Context, owner, fileID uuid.UUID) (file.File, error) {
	return s.ownedFile(ctx, owner, fileID)
}

func (s *FileService) ListFiles(ctx context.Context, owner uuid.UUID, filter repository.FileFilter) ([]file.File, error) {
	if owner == uuid.Nil {
		return nil, apperrors.ErrNotFound
	}
	return s.repo.ListByOwner(ctx, owner, filter)
}

// RequestDownload issues a presigned GET handle for an uploaded file.
func (s *FileService) RequestDownload(ctx context.Context, owner, fileID uuid.UUID) (storage.PresignedRequest, file.File, error) {
	f, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return storage.PresignedRequest{}, file.File{}, err
	}
	if !f.IsUploaded() {
		return storage.PresignedRequest{}, file.File{}, fmt.Errorf("%w: upload not confirmed", apperrors.ErrNotReady)
	}

	presigned, err := s.blob.PresignGet(ctx, f.StorageKey)
	if err != nil {
		return storage.PresignedRequest{}, file.File{}, fmt.Errorf("%w: presign download: %v", apperrors.ErrDependency, err)
	}
	return presigned, f, nil
}

// DeleteFile removes the blob, then the session and its conversation, then
// the record. A blob-store failure aborts the whole operation so the record
// is never orphaned silently.
func (s *FileService) DeleteFile(ctx context.Context, owner, fileID uuid.UUID) error {
	f, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return err
	}

	if err := s.blob.DeleteObject(ctx, f.StorageKey); err != nil {
		return fmt.Errorf("%w: delete blob: %v", apperrors.ErrDependency, err)
	}
	if err := s.procRepo.DeleteSessionByFileID(ctx, f.ID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, f.ID); err != nil {
		return err
	}

	s.log.InfoCtx(ctx, "file deleted", zap.String("file_id", f.ID.String()))
	return nil
}

func (s *FileService) ownedFile(ctx context.Context, owner, fileID uuid.UUID) (file.File, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return file.File{}, err
	}
	if !Authorize(owner, f.OwnerID) {
		return file.File{}, apperrors.ErrNotFound
	}
	return f, nil
}

// buildStorageKey derives a collision-resistant object key from owner, date
// and file id; the original filename is kept for operator readability.
func buildStorageKey(owner, fileID uuid.UUID, filename string, now time.Time) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(filename)
	return fmt.Sprintf("uploads/%s/%s/%s_%s", owner.String(), now.Format("2006/01/02"), fileID.String(), safe)
}
