package processing

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Session represents the processing_sessions table. One session per file:
// file_id carries a unique index so a duplicate start is a constraint
// violation rather than silent duplicate work.
type Session struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"processing_id"`
	FileID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"file_id"`
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	DocumentURL   string    `json:"-"`
	Summary       string    `json:"summary"`
	Status        string    `gorm:"not null;default:'pending'" json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Entry represents the conversation_entries table. Entries are immutable
// once written; sequence is the replay order, not asked_at.
type Entry struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ProcessingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entry_seq;constraint:OnDelete:CASCADE" json:"processing_id"`
	Sequence     int64     `gorm:"not null;uniqueIndex:idx_entry_seq" json:"sequence"`
	Question     string    `gorm:"not null" json:"question"`
	Answer       string    `gorm:"not null" json:"answer"`
	AskedAt      time.Time `json:"asked_at"`
}

// SessionSequence represents the session_sequences table
type SessionSequence struct {
	ProcessingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastSequence int64
	UpdatedAt    time.Time
}

func (Session) TableName() string {
	return "processing_sessions"
}

func (Entry) TableName() string {
	return "conversation_entries"
}

func (SessionSequence) TableName() string {
	return "session_sequences"
}
