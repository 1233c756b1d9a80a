package models

import "time"

// Job is the history record of a single processing run.
// It tracks the outcome and metadata of the file that was processed.
type Job struct {
	ID               string    `firestore:"id,omitempty"`
	ToolID           string    `firestore:"toolId,omitempty"`
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	ResultFilename   string    `firestore:"resultFilename,omitempty"`
	ResultMIMEType   string    `firestore:"resultMimeType,omitempty"`
	ResultSize       int       `firestore:"resultSize,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
	CompletedAt      time.Time `firestore:"completedAt,omitempty"`
}

// Job statuses.
const (
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)
