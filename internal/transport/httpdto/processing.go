package httpdto

import (
	"time"
	"unicode/utf8"

	"docuchat/internal/domain/processing"
)

// SessionDTO represents a processing session in API responses. The summary
// is truncated for the transport; the full text stays persisted.
type SessionDTO struct {
	ProcessingID  string `json:"processing_id"`
	FileID        string `json:"file_id"`
	Status        string `json:"status"`
	Summary       string `json:"summary,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// AskRequest is used for POST /v1/processing/:id/questions
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// EntryDTO represents one question/answer pair
type EntryDTO struct {
	ProcessingID string `json:"processing_id"`
	Sequence     int64  `json:"sequence"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	AskedAt      string `json:"asked_at"`
}

// HistoryResponse is returned for GET /v1/processing/:id/conversations
type HistoryResponse struct {
	ProcessingID string     `json:"processing_id"`
	Entries      []EntryDTO `json:"conversations"`
	Total        int        `json:"total_conversations"`
}

const summaryPreviewLen = 500

func NewSessionDTO(s processing.Session, truncate bool) SessionDTO {
	summary := s.Summary
	if truncate && len(summary) > summaryPreviewLen {
		cut := summaryPreviewLen
		// Back up to a rune boundary so the cut never splits a character.
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}
	return SessionDTO{
		ProcessingID:  s.ID.String(),
		FileID:        s.FileID.String(),
		Status:        s.Status,
		Summary:       summary,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func NewEntryDTO(e processing.Entry) EntryDTO {
	return EntryDTO{
		ProcessingID: e.ProcessingID.String(),
		Sequence:     e.Sequence,
		Question:     e.Question,
		Answer:       e.Answer,
		AskedAt:      e.AskedAt.Format(time.RFC3339),
	}
}
