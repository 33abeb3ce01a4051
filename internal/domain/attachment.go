package domain

import "time"

// Attachment stores metadata for a file attached to a ticket. The blob
// itself lives in the external attachment store; only the reference is
// recorded here.
type Attachment struct {
	ID           string
	TicketID     string
	FileName     string
	FileURL      string
	SizeBytes    int64
	UploadedByID string
	UploadedAt   time.Time
}
