package domain

import "time"

// Comment is an immutable note on a ticket thread. Internal comments are
// hidden from SOFTWARE_ENGINEER viewers and may only be authored by
// ADMIN or HR employees.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
