package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a maintenance issue.
type Category string

const (
	CategoryPlumbing   Category = "plumbing"
	CategoryElectrical Category = "electrical"
	CategoryCleaning   Category = "cleaning"
	CategoryFurniture  Category = "furniture"
	CategoryInternet   Category = "internet"
	CategorySecurity   Category = "security"
	CategoryOther      Category = "other"
)

// ValidCategory reports whether c is a known issue category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryCleaning,
		CategoryFurniture, CategoryInternet, CategorySecurity, CategoryOther:
		return true
	}
	return false
}

// Priority ranks how urgent an issue is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status is the lifecycle state of an issue.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Comment is one entry in an issue's append-only comment log.
// IsOwner is derived server-side from the verified caller identity,
// never from client input.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   uuid.UUID `json:"issueId"`
	UserID    uuid.UUID `json:"userId"`
	Text      string    `json:"text"`
	IsOwner   bool      `json:"isOwner"`
	CreatedAt time.Time `json:"createdAt"`
}

// Issue is a maintenance issue filed by a student against the PG they joined.
type Issue struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	RoomNumber      string     `json:"roomNumber"`
	Category        Category   `json:"category"`
	Priority        Priority   `json:"priority"`
	Status          Status     `json:"status"`
	StudentID       uuid.UUID  `json:"studentId"`
	PGHostelID      uuid.UUID  `json:"pgHostelId"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	Images          []string   `json:"images"`
	Comments        []Comment  `json:"comments"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// PGHostelName is populated on reads for display, not stored on the issue.
	PGHostelName string `json:"pgHostelName,omitempty"`
}
