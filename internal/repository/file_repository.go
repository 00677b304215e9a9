package repository

import (
	"context"
	"errors"
	"time"

	"docuchat/internal/domain/file"
	"docuchat/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresFileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &PostgresFileRepository{db: db}
}

func (r *PostgresFileRepository) Create(ctx context.Context, f *file.File) error {
	res := r.db.WithContext(ctx).Create(f)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict
		}
		return res.Error
	}
	return nil
}

func (r *PostgresFileRepository) GetByID(ctx context.Context, id uuid.UUID) (file.File, error) {
	var f file.File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return file.File{}, apperrors.ErrNotFound
		}
		return file.File{}, err
	}
	return f, nil
}

func (r *PostgresFileRepository) Update(ctx context.Context, f file.File) error {
	// Updates with an explicit WHERE never falls back to an insert the way
	// Save does, so updating a deleted record stays a not-found.
	f.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&file.File{}).
		Where("id = ?", f.ID).
		Select("*").
		Updates(f)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&file.File{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresFileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter FileFilter) ([]file.File, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.UploadStatus != "" {
		q = q.Where("upload_status = ?", filter.UploadStatus)
	}
	if filter.ProjectID.Valid {
		q = q.Where("project_id = ?", filter.ProjectID.UUID)
	}

	var files []file.File
	err := q.Order("created_at DESC").Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *PostgresFileRepository) SetProcessingStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).
		Model(&file.File{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_status": status,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
