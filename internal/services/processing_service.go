package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docuchat/internal/ai"
	"docuchat/internal/domain/file"
	"docuchat/internal/domain/processing"
	"docuchat/internal/repository"
	"docuchat/pkg/apperrors"
	"docuchat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProcessingService struct {
	repo      repository.ProcessingRepository
	fileRepo  repository.FileRepository
	blob      BlobIssuer
	ai        ai.Collaborator
	aiTimeout time.Duration
	log       *logger.Logger
}

func NewProcessingService(repo repository.ProcessingRepository, fileRepo repository.FileRepository, blob BlobIssuer, collaborator ai.Collaborator, aiTimeout time.Duration, log *logger.Logger) *ProcessingService {
	return &ProcessingService{
		repo:      repo,
		fileRepo:  fileRepo,
		blob:      blob,
		ai:        collaborator,
		aiTimeout: aiTimeout,
		log:       log,
	}
}

// StartProcessing summarizes an uploaded file and records the session.
// Starting an already-processed file returns the existing session unchanged;
// only a failed session is re-attempted, and only because the caller asked
// again. The session row is written before the collaborator call so a
// concurrent start can only land on the unique file_id index, not duplicate
// the AI work.
func (s *ProcessingService) StartProcessing(ctx context.Context, owner, fileID uuid.UUID) (processing.Session, error) {
	f, err := s.ownedUploadedFile(ctx, owner, fileID)
	if err != nil {
		return processing.Session{}, err
	}

	session, err := s.repo.GetSessionByFileID(ctx, fileID)
	switch {
	case err == nil:
		// A pending session older than the operation timeout was stranded
		// by a crash mid-attempt; anything younger is still in flight.
		stale := session.Status == processing.StatusPending &&
			time.Since(session.UpdatedAt) > s.aiTimeout
		if session.Status != processing.StatusFailed && !stale {
			return session, nil
		}
		// Explicit retry of a failed or stranded session: re-attempt in place.
	case errors.Is(err, apperrors.ErrNotFound):
		now := time.Now()
		session = processing.Session{
			ID:        uuid.New(),
			FileID:    fileID,
			OwnerID:   owner,
			Status:    processing.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if createErr := s.repo.CreateSession(ctx, &session); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				// Lost the race to a concurrent start; hand back the winner.
				return s.repo.GetSessionByFileID(ctx, fileID)
			}
			return processing.Session{}, createErr
		}
	default:
		return processing.Session{}, err
	}

	presigned, err := s.blob.PresignGet(ctx, f.StorageKey)
	if err != nil {
		return processing.Session{}, fmt.Errorf("%w: presign document: %v", apperrors.ErrDependency, err)
	}
	session.DocumentURL = presigned.URL

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	summary, aiErr := s.ai.Summarize(aiCtx, presigned.URL)
	cancel()

	if aiErr != nil {
		mapped := mapCollaboratorError(aiErr)
		session.Status = processing.StatusFailed
		session.FailureReason = aiErr.Error()
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return processing.Session{}, err
		}
		if err := s.fileRepo.SetProcessingStatus(ctx, fileID, file.ProcessingFailed); err != nil {
			return processing.Session{}, err
		}
		s.log.ErrorCtx(ctx, "summarization failed",
			zap.String("processing_id", session.ID.String()),
			zap.Error(aiErr))
		return session, mapped
	}

	session.Status = processing.StatusCompleted
	session.Summary = summary
	session.FailureReason = ""
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return processing.Session{}, err
	}
	if err := s.fileRepo.SetProcessingStatus(ctx, fileID, file.ProcessingCompleted); err != nil {
		return processing.Session{}, err
	}

	s.log.InfoCtx(ctx, "document processed",
		zap.String("processing_id", session.ID.String()),
		zap.String("file_id", fileID.String()))
	return session, nil
}

func (s *ProcessingService) GetSession(ctx context.Context, owner, processingID uuid.UUID) (processing.Session, error) {
	return s.ownedSession(ctx, owner, processingID)
}

// Ask answers a question against a completed session, passing the full
// ordered history to the collaborator. The entry is written only after the
// collaborator succeeds, and its sequence is allocated inside the repository
// transaction, so the per-session lock never spans the AI call.
func (s *ProcessingService) Ask(ctx context.Context, owner, processingID uuid.UUID, question string) (processing.Entry, error) {
	if strings.TrimSpace(question) == "" {
		return processing.Entry{}, fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput)
	}

	session, err := s.ownedSession(ctx, owner, processingID)
	if err != nil {
		return processing.Entry{}, err
	}
	if session.Status != processing.StatusCompleted {
		return processing.Entry{}, fmt.Errorf("%w: session is %s", apperrors.ErrNotReady, session.Status)
	}

	f, err := s.fileRepo.GetByID(ctx, session.FileID)
	if err != nil {
		return processing.Entry{}, err
	}

	entries, err := s.repo.ListEntries(ctx, processingID)
	if err != nil {
		return processing.Entry{}, err
	}
	history := make([]ai.Turn, 0, len(entries))
	for _, e := range entries {
		history = append(history, ai.Turn{Question: e.Question, Answer: e.Answer})
	}

	presigned, err := s.blob.PresignGet(ctx, f.StorageKey)
	if err != nil {
		return processing.Entry{}, fmt.Errorf("%w: presign document: %v", apperrors.ErrDependency, err)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	answer, aiErr := s.ai.Answer(aiCtx, presigned.URL, question, history)
	cancel()
	if aiErr != nil {
		s.log.ErrorCtx(ctx, "question failed",
			zap.String("processing_id", processingID.String()),
			zap.Error(aiErr))
		return processing.Entry{}, mapCollaboratorError(aiErr)
	}

	entry, err := s.repo.AppendEntry(ctx, processingID, question, answer, time.Now())
	if err != nil {
		return processing.Entry{}, err
	}
	return entry, nil
}

func (s *ProcessingService) History(ctx context.Context, owner, processingID uuid.UUID) ([]processing.Entry, error) {
	if _, err := s.ownedSession(ctx, owner, processingID); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, processingID)
}

func (s *ProcessingService) ownedSession(ctx context.Context, owner, processingID uuid.UUID) (processing.Session, error) {
	session, err := s.repo.GetSessionByID(ctx, processingID)
	if err != nil {
		return processing.Session{}, err
	}
	if !Authorize(owner, session.OwnerID) {
		return processing.Session{}, apperrors.ErrNotFound
	}
	return session, nil
}

func (s *ProcessingService) ownedUploadedFile(ctx context.Context, owner, fileID uuid.UUID) (file.File, error) {
	f, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return file.File{}, err
	}
	if !Authorize(owner, f.OwnerID) {
		return file.File{}, apperrors.ErrNotFound
	}
	if !f.IsUploaded() {
		return file.File{}, fmt.Errorf("%w: upload not confirmed", apperrors.ErrNotReady)
	}
	return f, nil
}

func mapCollaboratorError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrDependency, err)
}
