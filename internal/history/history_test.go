package history

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/docforge/internal/models"
)

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := LogRecorder{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := r.Record(context.Background(), models.Job{
		ID: "job-1", ToolID: "ocr", Status: models.JobStatusCompleted,
		OriginalFilename: "scan.pdf", ResultFilename: "processed_scan.txt",
		CreatedAt: start, CompletedAt: start.Add(time.Second),
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Job recorded.", entry["msg"])
	assert.Equal(t, "job-1", entry["jobId"])
	assert.Equal(t, "COMPLETED", entry["status"])
	assert.Equal(t, "processed_scan.txt", entry["resultFilename"])
}

func TestOpenFirestore_RequiresProjectAndCollection(t *testing.T) {
	_, err := OpenFirestore(context.Background(), "", "jobs")
	assert.Error(t, err)

	_, err = OpenFirestore(context.Background(), "project", "")
	assert.Error(t, err)
}

// newEmulatorRecorder connects to the Firestore emulator, skipping the test when
// none is running. Each test gets its own collection.
func newEmulatorRecorder(t *testing.T) *FirestoreRecorder {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	r, err := OpenFirestore(context.Background(), "docforge-test", "jobs-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestFirestoreRecorder_PreviousMatchesToolHashAndStatus(t *testing.T) {
	r := newEmulatorRecorder(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	jobs := []models.Job{
		{ID: "failed", ToolID: "ocr", FileHash: "abc", Status: models.JobStatusFailed, CreatedAt: start},
		{ID: "other-tool", ToolID: "pdf-to-image", FileHash: "abc", Status: models.JobStatusCompleted, CreatedAt: start},
		{ID: "other-hash", ToolID: "ocr", FileHash: "def", Status: models.JobStatusCompleted, CreatedAt: start},
		{ID: "match", ToolID: "ocr", FileHash: "abc", Status: models.JobStatusCompleted,
			ResultFilename: "processed_scan.txt", CreatedAt: start, CompletedAt: start.Add(time.Second)},
	}
	for _, job := range jobs {
		require.NoError(t, r.Record(ctx, job))
	}

	got, err := r.Previous(ctx, "ocr", "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "match", got.ID)
	assert.Equal(t, "processed_scan.txt", got.ResultFilename)
	assert.True(t, got.CompletedAt.Equal(start.Add(time.Second)))

	none, err := r.Previous(ctx, "rotate-pdf", "abc")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFirestoreRecorder_RecordRequiresID(t *testing.T) {
	r := newEmulatorRecorder(t)

	err := r.Record(context.Background(), models.Job{ToolID: "ocr"})
	assert.Error(t, err)
}
