// Package history records processing runs.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/docforge/internal/models"
)

// Recorder stores the outcome of a processing run.
type Recorder interface {
	Record(ctx context.Context, job models.Job) error
}

// Finder looks up an earlier completed run of the same tool over the same input.
type Finder interface {
	Previous(ctx context.Context, toolID, fileHash string) (*models.Job, error)
}

// FirestoreRecorder writes one document per job, keyed by job id.
type FirestoreRecorder struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreRecorder(client *firestore.Client, collection string) *FirestoreRecorder {
	return &FirestoreRecorder{client: client, collection: collection}
}

// OpenFirestore connects to the project's default database. Close releases the
// client.
func OpenFirestore(ctx context.Context, projectID, collection string) (*FirestoreRecorder, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to record jobs in firestore")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection must be provided to record jobs in firestore")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return NewFirestoreRecorder(client, collection), nil
}

func (r *FirestoreRecorder) Close() error {
	return r.client.Close()
}

func (r *FirestoreRecorder) Record(ctx context.Context, job models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id must be set")
	}
	if _, err := r.client.Collection(r.collection).Doc(job.ID).Set(ctx, job); err != nil {
		return fmt.Errorf("failed to write job %s: %w", job.ID, err)
	}
	return nil
}

// Previous returns the most recent completed job for the tool and file hash, or
// nil when there is none.
func (r *FirestoreRecorder) Previous(ctx context.Context, toolID, fileHash string) (*models.Job, error) {
	docs, err := r.client.Collection(r.collection).
		Where("fileHash", "==", fileHash).
		Where("toolId", "==", toolID).
		Where("status", "==", models.JobStatusCompleted).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query previous jobs: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var job models.Job
	if err := docs[0].DataTo(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", docs[0].Ref.ID, err)
	}
	if job.ID == "" {
		job.ID = docs[0].Ref.ID
	}
	return &job, nil
}

// LogRecorder writes jobs to the structured log.
type LogRecorder struct {
	Logger *slog.Logger
}

func (r LogRecorder) Record(_ context.Context, job models.Job) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Job recorded.",
		"jobId", job.ID,
		"tool", job.ToolID,
		"status", job.Status,
		"fileHash", job.FileHash,
		"originalFilename", job.OriginalFilename,
		"resultFilename", job.ResultFilename,
		"resultSize", job.ResultSize,
		"errorDetails", job.ErrorDetails,
		"duration", job.CompletedAt.Sub(job.CreatedAt),
	)
	return nil
}
