package repository

import (
	"context"
	"errors"
	"time"

	"docuchat/internal/domain/processing"
	"docuchat/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresProcessingRepository struct {
	db *gorm.DB
}

func NewProcessingRepository(db *gorm.DB) ProcessingRepository {
	return &PostgresProcessingRepository{db: db}
}

func (r *PostgresProcessingRepository) CreateSession(ctx context.Context, s *processing.Session) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict
		}
		return res.Error
	}
	return nil
}

func (r *PostgresProcessingRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (processing.Session, error) {
	var s processing.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return processing.Session{}, apperrors.ErrNotFound
		}
		return processing.Session{}, err
	}
	return s, nil
}

func (r *PostgresProcessingRepository) GetSessionByFileID(ctx context.Context, fileID uuid.UUID) (processing.Session, error) {
	var s processing.Session
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return processing.Session{}, apperrors.ErrNotFound
		}
		return processing.Session{}, err
	}
	return s, nil
}

func (r *PostgresProcessingRepository) UpdateSession(ctx context.Context, s processing.Session) error {
	// Updates with an explicit WHERE never falls back to an insert the way
	// Save does, so updating a deleted session stays a not-found.
	s.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&processing.Session{}).
		Where("id = ?", s.ID).
		Select("*").
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteSessionByFileID removes a session, its entries and its sequence row.
// A file without a session is not an error here: DeleteFile calls this
// unconditionally.
func (r *PostgresProcessingRepository) DeleteSessionByFileID(ctx context.Context, fileID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s processing.Session
		err := tx.Where("file_id = ?", fileID).First(&s).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Delete(&processing.Entry{}, "processing_id = ?", s.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&processing.SessionSequence{}, "processing_id = ?", s.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&processing.Session{}, "id = ?", s.ID).Error
	})
}

func (r *PostgresProcessingRepository) AppendEntry(ctx context.Context, processingID uuid.UUID, question, answer string, askedAt time.Time) (processing.Entry, error) {
	var entry processing.Entry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The increment is a conditional upsert so concurrent appends
		// serialize on the sequence row inside the database; a
		// read-then-write here would let two transactions allocate the
		// same sequence.
		var next int64
		err := tx.Raw(`
			INSERT INTO session_sequences (processing_id, last_sequence, updated_at)
			VALUES (?, 1, ?)
			ON CONFLICT (processing_id) DO UPDATE
			SET last_sequence = session_sequences.last_sequence + 1,
			    updated_at = excluded.updated_at
			RETURNING last_sequence`,
			processingID, time.Now(),
		).Scan(&next).Error
		if err != nil {
			return err
		}

		entry = processing.Entry{
			ProcessingID: processingID,
			Sequence:     next,
			Question:     question,
			Answer:       answer,
			AskedAt:      askedAt,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return processing.Entry{}, err
	}
	return entry, nil
}

func (r *PostgresProcessingRepository) ListEntries(ctx context.Context, processingID uuid.UUID) ([]processing.Entry, error) {
	var entries []processing.Entry
	err := r.db.WithContext(ctx).
		Where("processing_id = ?", processingID).
		Order("sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
