package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"docuchat/internal/ai"
	"docuchat/internal/domain/file"
	"docuchat/internal/domain/processing"
	"docuchat/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processingFixture struct {
	svc      *ProcessingService
	fileSvc  *FileService
	fileRepo *fakeFileRepo
	procRepo *fakeProcessingRepo
	blob     *fakeBlob
	ai       *fakeCollaborator
	owner    uuid.UUID
}

func newProcessingFixture(t *testing.T) *processingFixture {
	t.Helper()
	fileRepo := newFakeFileRepo()
	procRepo := newFakeProcessingRepo()
	blob := &fakeBlob{}
	collaborator := &fakeCollaborator{summary: "a summary of the document"}
	log := testLogger()
	return &processingFixture{
		svc:      NewProcessingService(procRepo, fileRepo, blob, collaborator, time.Minute, log),
		fileSvc:  NewFileService(fileRepo, procRepo, blob, log),
		fileRepo: fileRepo,
		procRepo: procRepo,
		blob:     blob,
		ai:       collaborator,
		owner:    uuid.New(),
	}
}

func (fx *processingFixture) uploadedFile(t *testing.T) file.File {
	t.Helper()
	grant, err := fx.fileSvc.RequestUpload(context.Background(), fx.owner, validUploadInput())
	require.NoError(t, err)
	f, err := fx.fileSvc.ConfirmUpload(context.Background(), fx.owner, grant.File.ID, nil)
	require.NoError(t, err)
	return f
}

func (fx *processingFixture) completedSession(t *testing.T) processing.Session {
	t.Helper()
	f := fx.uploadedFile(t)
	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)
	require.Equal(t, processing.StatusCompleted, session.Status)
	return session
}

func TestStartProcessing(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)

	assert.Equal(t, processing.StatusCompleted, session.Status)
	assert.Equal(t, "a summary of the document", session.Summary)
	assert.Equal(t, f.ID, session.FileID)

	updated, err := fx.fileRepo.GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ProcessingCompleted, updated.ProcessingStatus)
	// Completed processing implies a confirmed upload.
	assert.Equal(t, file.UploadComplete, updated.UploadStatus)
}

func TestStartProcessingRequiresUploadedFile(t *testing.T) {
	fx := newProcessingFixture(t)

	grant, err := fx.fileSvc.RequestUpload(context.Background(), fx.owner, validUploadInput())
	require.NoError(t, err)

	_, err = fx.svc.StartProcessing(context.Background(), fx.owner, grant.File.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotReady)
	assert.Zero(t, fx.ai.summarizeCalls)
}

func TestStartProcessingIdempotent(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	first, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)
	second, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fx.ai.summarizeCalls)
}

func TestStartProcessingCollaboratorFailure(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)
	fx.ai.summarizeErr = errors.New("model unavailable")

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrDependency)
	assert.Equal(t, processing.StatusFailed, session.Status)
	assert.Contains(t, session.FailureReason, "model unavailable")

	stored, getErr := fx.procRepo.GetSessionByID(context.Background(), session.ID)
	require.NoError(t, getErr)
	assert.Equal(t, processing.StatusFailed, stored.Status)

	updated, getErr := fx.fileRepo.GetByID(context.Background(), f.ID)
	require.NoError(t, getErr)
	assert.Equal(t, file.ProcessingFailed, updated.ProcessingStatus)
}

func TestStartProcessingRetriesFailedSession(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	fx.ai.summarizeErr = errors.New("model unavailable")
	failed, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.ErrorIs(t, err, apperrors.ErrDependency)

	fx.ai.summarizeErr = nil
	retried, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)

	assert.Equal(t, failed.ID, retried.ID)
	assert.Equal(t, processing.StatusCompleted, retried.Status)
	assert.Empty(t, retried.FailureReason)
	assert.Equal(t, 2, fx.ai.summarizeCalls)
}

func TestStartProcessingRetriesStalePendingSession(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	stranded := processing.Session{
		ID:        uuid.New(),
		FileID:    f.ID,
		OwnerID:   fx.owner,
		Status:    processing.StatusPending,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, fx.procRepo.CreateSession(context.Background(), &stranded))

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)

	assert.Equal(t, stranded.ID, session.ID)
	assert.Equal(t, processing.StatusCompleted, session.Status)
	assert.Equal(t, 1, fx.ai.summarizeCalls)
}

func TestStartProcessingLeavesFreshPendingSessionAlone(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	inFlight := processing.Session{
		ID:        uuid.New(),
		FileID:    f.ID,
		OwnerID:   fx.owner,
		Status:    processing.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, fx.procRepo.CreateSession(context.Background(), &inFlight))

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.NoError(t, err)

	assert.Equal(t, inFlight.ID, session.ID)
	assert.Equal(t, processing.StatusPending, session.Status)
	assert.Zero(t, fx.ai.summarizeCalls)
}

func TestStartProcessingTimeout(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)
	fx.ai.summarizeErr = context.DeadlineExceeded

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Equal(t, processing.StatusFailed, session.Status)
}

func TestGetSessionNonOwner(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	_, err := fx.svc.GetSession(context.Background(), uuid.New(), session.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAsk(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	first, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "What is this about?")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, "What is this about?", first.Question)
	assert.NotEmpty(t, first.Answer)

	second, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "Who wrote it?")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Sequence)
}

func TestAskPassesFullHistory(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	_, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "first question")
	require.NoError(t, err)
	_, err = fx.svc.Ask(context.Background(), fx.owner, session.ID, "second question")
	require.NoError(t, err)

	require.Len(t, fx.ai.gotHistory, 2)
	assert.Empty(t, fx.ai.gotHistory[0])
	require.Len(t, fx.ai.gotHistory[1], 1)
	assert.Equal(t, "first question", fx.ai.gotHistory[1][0].Question)
	assert.Equal(t, "answer to first question", fx.ai.gotHistory[1][0].Answer)
}

func TestAskRequiresCompletedSession(t *testing.T) {
	fx := newProcessingFixture(t)
	f := fx.uploadedFile(t)

	fx.ai.summarizeErr = errors.New("model unavailable")
	failed, err := fx.svc.StartProcessing(context.Background(), fx.owner, f.ID)
	require.ErrorIs(t, err, apperrors.ErrDependency)

	_, err = fx.svc.Ask(context.Background(), fx.owner, failed.ID, "anything?")
	assert.ErrorIs(t, err, apperrors.ErrNotReady)

	entries, err := fx.svc.History(context.Background(), fx.owner, failed.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAskCollaboratorFailureWritesNothing(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)
	fx.ai.answerErr = errors.New("model unavailable")

	_, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "doomed question")
	assert.ErrorIs(t, err, apperrors.ErrDependency)

	fx.ai.answerErr = nil
	entries, err := fx.svc.History(context.Background(), fx.owner, session.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAskEmptyQuestion(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	_, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAskNonOwner(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	_, err := fx.svc.Ask(context.Background(), uuid.New(), session.ID, "question")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConcurrentAsksProduceGapFreeSequences(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	const askers = 20
	var wg sync.WaitGroup
	errs := make([]error, askers)
	wg.Add(askers)
	for i := 0; i < askers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Ask(context.Background(), fx.owner, session.ID, "concurrent question")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	entries, err := fx.svc.History(context.Background(), fx.owner, session.ID)
	require.NoError(t, err)
	require.Len(t, entries, askers)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Sequence)
	}
}

func TestHistoryOrdering(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	questions := []string{"one", "two", "three"}
	for _, q := range questions {
		_, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, q)
		require.NoError(t, err)
	}

	entries, err := fx.svc.History(context.Background(), fx.owner, session.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(questions))
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Sequence)
		assert.Equal(t, questions[i], e.Question)
	}
}

func TestHistoryNonOwner(t *testing.T) {
	fx := newProcessingFixture(t)
	session := fx.completedSession(t)

	_, err := fx.svc.History(context.Background(), uuid.New(), session.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestScenarioUploadProcessAsk(t *testing.T) {
	fx := newProcessingFixture(t)

	grant, err := fx.fileSvc.RequestUpload(context.Background(), fx.owner, RequestUploadInput{
		Filename:     "report.pdf",
		ContentType:  "application/pdf",
		DeclaredSize: 102400,
	})
	require.NoError(t, err)
	require.NotEmpty(t, grant.Presign.URL)

	size := int64(102300)
	confirmed, err := fx.fileSvc.ConfirmUpload(context.Background(), fx.owner, grant.File.ID, &size)
	require.NoError(t, err)
	require.Equal(t, file.UploadComplete, confirmed.UploadStatus)

	session, err := fx.svc.StartProcessing(context.Background(), fx.owner, grant.File.ID)
	require.NoError(t, err)
	require.Equal(t, processing.StatusCompleted, session.Status)
	require.NotEmpty(t, session.Summary)

	first, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "What is this about?")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Sequence)

	second, err := fx.svc.Ask(context.Background(), fx.owner, session.ID, "And the conclusion?")
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Sequence)

	entries, err := fx.svc.History(context.Background(), fx.owner, session.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Question, entries[0].Question)
	assert.Equal(t, second.Question, entries[1].Question)
}

var _ ai.Collaborator = (*fakeCollaborator)(nil)
