package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/internal/source"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

var log = logger.Get("JobStore")

const (
	urlArtifact       = "url.txt"
	metadataArtifact  = "metadata.txt"
	mediaTypeArtifact = "media_type.txt"
	embeddingArtifact = "first_frame.npy"
)

// Store owns the on-disk layout of job artifacts: one directory per
// job id beneath the output root, each holding the source URL, the
// row metadata, the settled media type, and (on success) the
// embedding vector. Jobs are fully independent of one another, and
// every operation is keyed solely by job id so that parallel workers
// processing disjoint jobs never contend.
type Store struct {
	root string
}

// New creates a Store rooted at the provided directory, creating the
// root if it's missing. An existing root is reused as-is, which is
// what makes re-running over a partially processed range a resume
// rather than a restart.
func New(root string) (*Store, error) {
	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("output root '%s' is not a directory", root)
		}
	} else if err := os.MkdirAll(root, os.ModeDir|os.ModePerm); err != nil {
		return nil, fmt.Errorf("output root '%s' could not be created: %w", root, err)
	}

	return &Store{root: root}, nil
}

// JobID derives the deterministic, zero-padded job identifier for a
// row ordinal. Ordinal uniqueness within a run is what guarantees no
// two rows share a job directory.
func JobID(ordinal int) string {
	return fmt.Sprintf("url_%04d", ordinal)
}

// JobDir returns the directory a job's artifacts live in (whether or
// not it exists yet).
func (store *Store) JobDir(jobID string) string {
	return filepath.Join(store.root, jobID)
}

// EnsureJob materializes the job's directory. Safe to call
// repeatedly and concurrently for distinct jobs.
func (store *Store) EnsureJob(jobID string) (string, error) {
	dir := store.JobDir(jobID)
	if err := os.MkdirAll(dir, os.ModeDir|os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create job directory %s: %w", dir, err)
	}

	return dir, nil
}

// WriteProvenance persists the source URL and the non-URL row
// metadata (one key=value line per column, insertion order
// preserved). Provenance must be written BEFORE any network I/O for
// the job so a crash mid-download still identifies the row. Write
// failures are logged and swallowed: losing a metadata write must not
// fail an otherwise-successful job.
func (store *Store) WriteProvenance(jobID string, url string, fields []source.Field) {
	if err := os.WriteFile(filepath.Join(store.JobDir(jobID), urlArtifact), []byte(url), os.ModePerm); err != nil {
		log.Emit(logger.WARNING, "Failed to write URL artifact for job %s: %s\n", jobID, err.Error())
	}

	var metadata strings.Builder
	for _, field := range fields {
		fmt.Fprintf(&metadata, "%s=%s\n", field.Key, field.Value)
	}
	if err := os.WriteFile(filepath.Join(store.JobDir(jobID), metadataArtifact), []byte(metadata.String()), os.ModePerm); err != nil {
		log.Emit(logger.WARNING, "Failed to write metadata artifact for job %s: %s\n", jobID, err.Error())
	}
}

// WriteMediaType records the media type actually used for frame
// extraction. Like provenance, failures are logged and swallowed.
func (store *Store) WriteMediaType(jobID string, mediaType media.Type) {
	if err := os.WriteFile(filepath.Join(store.JobDir(jobID), mediaTypeArtifact), []byte(mediaType.String()), os.ModePerm); err != nil {
		log.Emit(logger.WARNING, "Failed to write media type artifact for job %s: %s\n", jobID, err.Error())
	}
}

// WriteEmbedding persists the vector as the job's success-defining
// artifact. The write is atomic (temp file + rename inside the job
// directory) so a crash or cancellation can never leave a partial
// vector that a later resume would mistake for a complete job.
func (store *Store) WriteEmbedding(jobID string, vector []float32) error {
	dir := store.JobDir(jobID)
	tmp, err := os.CreateTemp(dir, embeddingArtifact+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary embedding file: %w", err)
	}

	if err := writeNpy(tmp, vector); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush embedding: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, embeddingArtifact)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize embedding: %w", err)
	}

	return nil
}

// ReadEmbedding loads a previously persisted embedding vector.
func (store *Store) ReadEmbedding(jobID string) ([]float32, error) {
	file, err := os.Open(filepath.Join(store.JobDir(jobID), embeddingArtifact))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readNpy(file)
}

// HasEmbedding reports whether the job is complete; presence of the
// embedding artifact is the sole success marker.
func (store *Store) HasEmbedding(jobID string) bool {
	_, err := os.Stat(filepath.Join(store.JobDir(jobID), embeddingArtifact))
	return err == nil
}

// ClearArtifacts removes all four artifact kinds for a job ahead of
// an overwrite re-run so stale and fresh data can never mix. Each
// delete is best-effort: a file that refuses to go away will be
// replaced by the re-run's writes anyway, so failures are logged and
// skipped rather than failing the row.
func (store *Store) ClearArtifacts(jobID string) {
	dir := store.JobDir(jobID)
	for _, artifact := range []string{embeddingArtifact, urlArtifact, metadataArtifact, mediaTypeArtifact} {
		path := filepath.Join(dir, artifact)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Emit(logger.WARNING, "Failed to clear artifact %s for job %s: %s\n", artifact, jobID, err.Error())
		}
	}
}
