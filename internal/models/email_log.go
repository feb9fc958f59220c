package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records a queued/sent/failed notification email.
type EmailLog struct {
	ID        uuid.UUID  `json:"id"`
	IssueID   *uuid.UUID `json:"issueId,omitempty"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    string     `json:"status"` // queued, sent, failed
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}
