package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/internal/source"
	"github.com/hbomb79/Glimpse/internal/store"
	"github.com/stretchr/testify/assert"
)

func Test_JobID_IsDeterministicAndZeroPadded(t *testing.T) {
	assert.Equal(t, "url_0000", store.JobID(0))
	assert.Equal(t, "url_0003", store.JobID(3))
	assert.Equal(t, "url_0042", store.JobID(42))
	assert.Equal(t, "url_12345", store.JobID(12345))
}

func Test_New_RejectsFileAsRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "occupied")
	assert.NoError(t, os.WriteFile(root, []byte("not a dir"), os.ModePerm))

	_, err := store.New(root)
	assert.Error(t, err)
}

func Test_WriteProvenance_PreservesFieldOrder(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(7)
	_, err = jobStore.EnsureJob(jobID)
	assert.NoError(t, err)

	jobStore.WriteProvenance(jobID, "https://example.com/a.jpg", []source.Field{
		{Key: "id", Value: "7"},
		{Key: "campaign", Value: "spring"},
		{Key: "adid", Value: "x91"},
	})

	url, err := os.ReadFile(filepath.Join(jobStore.JobDir(jobID), "url.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/a.jpg", string(url))

	metadata, err := os.ReadFile(filepath.Join(jobStore.JobDir(jobID), "metadata.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "id=7\ncampaign=spring\nadid=x91\n", string(metadata))
}

func Test_WriteMediaType_PersistsLiteralTag(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(1)
	_, err = jobStore.EnsureJob(jobID)
	assert.NoError(t, err)

	jobStore.WriteMediaType(jobID, media.Image)
	raw, err := os.ReadFile(filepath.Join(jobStore.JobDir(jobID), "media_type.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "image", string(raw))

	jobStore.WriteMediaType(jobID, media.Video)
	raw, err = os.ReadFile(filepath.Join(jobStore.JobDir(jobID), "media_type.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "video", string(raw))
}

func Test_WriteEmbedding_RoundTripsVector(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(2)
	_, err = jobStore.EnsureJob(jobID)
	assert.NoError(t, err)

	vector := []float32{0.25, -1.5, 3.14159, 0, 42}
	assert.False(t, jobStore.HasEmbedding(jobID))
	assert.NoError(t, jobStore.WriteEmbedding(jobID, vector))
	assert.True(t, jobStore.HasEmbedding(jobID))

	loaded, err := jobStore.ReadEmbedding(jobID)
	assert.NoError(t, err)
	assert.Equal(t, vector, loaded)
}

func Test_WriteEmbedding_LeavesNoTemporaryFiles(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(3)
	_, err = jobStore.EnsureJob(jobID)
	assert.NoError(t, err)
	assert.NoError(t, jobStore.WriteEmbedding(jobID, []float32{1, 2, 3}))

	entries, err := os.ReadDir(jobStore.JobDir(jobID))
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "first_frame.npy", entries[0].Name())
}

func Test_WriteEmbedding_AtomicallyReplacesExistingVector(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(4)
	_, err = jobStore.EnsureJob(jobID)
	assert.NoError(t, err)

	assert.NoError(t, jobStore.WriteEmbedding(jobID, []float32{1, 1, 1}))
	assert.NoError(t, jobStore.WriteEmbedding(jobID, []float32{2, 2}))

	loaded, err := jobStore.ReadEmbedding(jobID)
	assert.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, loaded)
}

func Test_ClearArtifacts_RemovesAllFourArtifactKinds(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(5)
	dir, err := jobStore.EnsureJob(jobID)
	assert.NoError(t, err)

	jobStore.WriteProvenance(jobID, "https://example.com/v.mp4", []source.Field{{Key: "id", Value: "5"}})
	jobStore.WriteMediaType(jobID, media.Video)
	assert.NoError(t, jobStore.WriteEmbedding(jobID, []float32{9}))

	jobStore.ClearArtifacts(jobID)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries, "expected every artifact to be removed")
	assert.False(t, jobStore.HasEmbedding(jobID))

	// Clearing an already-clear job must be a no-op, not a failure.
	jobStore.ClearArtifacts(jobID)
}

func Test_ReadEmbedding_RejectsCorruptArtifact(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(8)
	dir, err := jobStore.EnsureJob(jobID)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "first_frame.npy"), []byte("definitely not npy"), os.ModePerm))

	_, err = jobStore.ReadEmbedding(jobID)
	assert.Error(t, err)
}

func Test_EnsureJob_IsIdempotent(t *testing.T) {
	jobStore, err := store.New(t.TempDir())
	assert.NoError(t, err)

	jobID := store.JobID(6)
	first, err := jobStore.EnsureJob(jobID)
	assert.NoError(t, err)
	second, err := jobStore.EnsureJob(jobID)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}
