package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// Valid reports whether the status is one of the defined values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketCategory enumerates the subject-matter categories a ticket can be
// raised under. Each category is owned by exactly one role team.
type TicketCategory string

const (
	CategoryIT       TicketCategory = "IT"
	CategoryNetwork  TicketCategory = "NETWORK"
	CategoryHR       TicketCategory = "HR"
	CategorySoftware TicketCategory = "SOFTWARE"
)

// Categories lists every defined category.
var Categories = []TicketCategory{CategoryIT, CategoryNetwork, CategoryHR, CategorySoftware}

// Valid reports whether the category is one of the defined values.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryIT, CategoryNetwork, CategoryHR, CategorySoftware:
		return true
	}
	return false
}

// Priority is the ordinal urgency scale. Lower value means more urgent.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// Valid reports whether the priority is within the defined range.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// Label returns the human-readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// Ticket is the aggregate for support requests.
//
// Invariants: ResolvedAt is non-nil iff Status == RESOLVED, and AssignedToID
// is non-nil only when Status != OPEN.
type Ticket struct {
	ID           string
	TicketNumber string
	Title        string
	Description  string
	Category     TicketCategory
	Status       TicketStatus
	Priority     Priority
	CreatedByID  string
	AssignedToID *string
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}
