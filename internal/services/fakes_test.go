package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"docuchat/internal/ai"
	"docuchat/internal/domain/file"
	"docuchat/internal/domain/processing"
	"docuchat/internal/repository"
	"docuchat/internal/storage"
	"docuchat/pkg/apperrors"

	"github.com/google/uuid"
)

// -------- test fakes --------

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[uuid.UUID]file.File
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[uuid.UUID]file.File{}}
}

func (r *fakeFileRepo) Create(ctx context.Context, f *file.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[f.ID]; ok {
		return apperrors.ErrConflict
	}
	r.files[f.ID] = *f
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id uuid.UUID) (file.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return file.File{}, apperrors.ErrNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) Update(ctx context.Context, f file.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[f.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.UpdatedAt = time.Now()
	r.files[f.ID] = f
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repository.FileFilter) ([]file.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []file.File
	for _, f := range r.files {
		if f.OwnerID != ownerID {
			continue
		}
		if filter.UploadStatus != "" && f.UploadStatus != filter.UploadStatus {
			continue
		}
		if filter.ProjectID.Valid && (!f.ProjectID.Valid || f.ProjectID.UUID != filter.ProjectID.UUID) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFileRepo) SetProcessingStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	f.ProcessingStatus = status
	f.UpdatedAt = time.Now()
	r.files[id] = f
	return nil
}

type fakeProcessingRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]processing.Session
	byFile   map[uuid.UUID]uuid.UUID
	entries  map[uuid.UUID][]processing.Entry
	lastSeq  map[uuid.UUID]int64
}

func newFakeProcessingRepo() *fakeProcessingRepo {
	return &fakeProcessingRepo{
		sessions: map[uuid.UUID]processing.Session{},
		byFile:   map[uuid.UUID]uuid.UUID{},
		entries:  map[uuid.UUID][]processing.Entry{},
		lastSeq:  map[uuid.UUID]int64{},
	}
}

func (r *fakeProcessingRepo) CreateSession(ctx context.Context, s *processing.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFile[s.FileID]; ok {
		return apperrors.ErrConflict
	}
	r.sessions[s.ID] = *s
	r.byFile[s.FileID] = s.ID
	return nil
}

func (r *fakeProcessingRepo) GetSessionByID(ctx context.Context, id uuid.UUID) (processing.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return processing.Session{}, apperrors.ErrNotFound
	}
	return s, nil
}

func (r *fakeProcessingRepo) GetSessionByFileID(ctx context.Context, fileID uuid.UUID) (processing.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byFile[fileID]
	if !ok {
		return processing.Session{}, apperrors.ErrNotFound
	}
	return r.sessions[id], nil
}

func (r *fakeProcessingRepo) UpdateSession(ctx context.Context, s processing.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeProcessingRepo) DeleteSessionByFileID(ctx context.Context, fileID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byFile[fileID]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	delete(r.byFile, fileID)
	delete(r.entries, id)
	delete(r.lastSeq, id)
	return nil
}

func (r *fakeProcessingRepo) AppendEntry(ctx context.Context, processingID uuid.UUID, question, answer string, askedAt time.Time) (processing.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeq[processingID]++
	entry := processing.Entry{
		ProcessingID: processingID,
		Sequence:     r.lastSeq[processingID],
		Question:     question,
		Answer:       answer,
		AskedAt:      askedAt,
	}
	r.entries[processingID] = append(r.entries[processingID], entry)
	return entry, nil
}

func (r *fakeProcessingRepo) ListEntries(ctx context.Context, processingID uuid.UUID) ([]processing.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]processing.Entry, len(r.entries[processingID]))
	copy(out, r.entries[processingID])
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

type fakeBlob struct {
	mu      sync.Mutex
	putErr  error
	getErr  error
	delErr  error
	putKeys []string
	deleted []string
}

func (b *fakeBlob) PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (storage.PresignedRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return storage.PresignedRequest{}, b.putErr
	}
	b.putKeys = append(b.putKeys, key)
	return storage.PresignedRequest{
		URL:       "https://blob.test/put/" + key,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresIn: time.Hour,
	}, nil
}

func (b *fakeBlob) PresignGet(ctx context.Context, key string) (storage.PresignedRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return storage.PresignedRequest{}, b.getErr
	}
	return storage.PresignedRequest{
		URL:       "https://blob.test/get/" + key,
		Method:    "GET",
		ExpiresIn: time.Hour,
	}, nil
}

func (b *fakeBlob) DeleteObject(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.delErr != nil {
		return b.delErr
	}
	b.deleted = append(b.deleted, key)
	return nil
}

type fakeCollaborator struct {
	mu             sync.Mutex
	summary        string
	summarizeErr   error
	summarizeCalls int

	answerFn    func(question string, history []ai.Turn) (string, error)
	answerErr   error
	answerCalls int
	gotHistory  [][]ai.Turn
}

func (f *fakeCollaborator) Summarize(ctx context.Context, documentURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeCollaborator) Answer(ctx context.Context, documentURL, question string, history []ai.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCalls++
	f.gotHistory = append(f.gotHistory, history)
	if f.answerErr != nil {
		return "", f.answerErr
	}
	if f.answerFn != nil {
		return f.answerFn(question, history)
	}
	return "answer to " + question, nil
}
