package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/Glimpse/internal/frame"
	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/internal/source"
	"github.com/hbomb79/Glimpse/internal/store"
	"github.com/hbomb79/Glimpse/pkg/logger"
	"github.com/hbomb79/Glimpse/pkg/worker"
)

var log = logger.Get("Batch")

type (
	fetcher interface {
		Fetch(ctx context.Context, url string, dest string) (media.Type, error)
	}

	frameExtractor interface {
		ExtractFrame(ctx context.Context, src string, mediaType media.Type, dest string) error
	}

	embedder interface {
		Model() string
		EmbedImage(ctx context.Context, imagePath string) ([]float32, error)
	}

	jobStore interface {
		EnsureJob(jobID string) (string, error)
		WriteProvenance(jobID string, url string, fields []source.Field)
		WriteMediaType(jobID string, mediaType media.Type)
		WriteEmbedding(jobID string, vector []float32) error
		HasEmbedding(jobID string) bool
		ClearArtifacts(jobID string)
	}

	rowSource interface {
		Row(ordinal int) source.Row
		Len() int
	}
)

// Config holds the operational parameters for one batch run.
type Config struct {
	// Inclusive start and exclusive end row ordinals. An End of -1
	// means "through the last row".
	Start int
	End   int

	// When set, previously persisted artifacts for each job in the
	// range are cleared before recomputation. Without it, complete
	// jobs are left untouched and skipped.
	Overwrite bool

	// Number of workers processing rows concurrently.
	Parallelism int
}

// Summary aggregates per-row outcomes for a completed run. Counts
// are commutative over rows, so they're independent of the order in
// which workers finished.
type Summary struct {
	OK      int
	Failed  int
	Skipped int
	Elapsed time.Duration
}

// batchService drives every row in the configured range through the
// classify/fetch/extract/embed/persist pipeline via a bounded worker
// pool. A row's failure is tagged and recorded on its item; it never
// aborts the batch.
type batchService struct {
	fetcher   fetcher
	extractor frameExtractor
	embedder  embedder
	store     jobStore
	rows      rowSource

	config      Config
	scratchRoot string
	items       []*JobItem
}

// New validates the requested row range against the resolved row set
// and prepares a job item per ordinal. A range which resolves to
// zero rows is an error - silently succeeding over nothing would
// mask a misconfigured invocation.
func New(config Config, rows rowSource, fetcher fetcher, extractor frameExtractor, embedder embedder, jobStore jobStore) (*batchService, error) {
	if config.End < 0 || config.End > rows.Len() {
		config.End = rows.Len()
	}
	if config.Start < 0 {
		config.Start = 0
	}
	if config.Start >= config.End {
		return nil, fmt.Errorf("no rows to process in requested range [%d, %d) over %d row(s)", config.Start, config.End, rows.Len())
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}

	items := make([]*JobItem, 0, config.End-config.Start)
	for ordinal := config.Start; ordinal < config.End; ordinal++ {
		items = append(items, &JobItem{
			Ordinal: ordinal,
			ID:      store.JobID(ordinal),
			State:   PENDING,
		})
	}

	return &batchService{
		fetcher:   fetcher,
		extractor: extractor,
		embedder:  embedder,
		store:     jobStore,
		rows:      rows,
		config:    config,
		items:     items,
	}, nil
}

// Run feeds the row range to the worker pool and blocks until every
// dispatched row has finished. Cancelling the context stops further
// rows from being dispatched; rows already claimed by a worker run to
// completion so no job is ever left mid-write.
func (service *batchService) Run(ctx context.Context) (*Summary, error) {
	scratchRoot := filepath.Join(os.TempDir(), fmt.Sprintf("glimpse-%s", uuid.New().String()))
	if err := os.MkdirAll(scratchRoot, os.ModeDir|os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create scratch area %s: %w", scratchRoot, err)
	}
	service.scratchRoot = scratchRoot
	defer os.RemoveAll(scratchRoot)

	log.Emit(logger.INFO, "Processing rows %d..%d out of %d total with %d worker(s)\n",
		service.config.Start, service.config.End-1, service.rows.Len(), service.config.Parallelism)

	pool := worker.NewWorkerPool()
	for i := 0; i < service.config.Parallelism; i++ {
		label := fmt.Sprintf("batch-worker-%d", i)
		pool.PushWorker(worker.NewWorker(label, func(label string, ordinal int) {
			service.processOrdinal(ctx, ordinal)
		}))
	}

	startedAt := time.Now()
	feed := make(chan int)
	if err := pool.Start(ctx, feed); err != nil {
		return nil, err
	}

feeding:
	for ordinal := service.config.Start; ordinal < service.config.End; ordinal++ {
		select {
		case feed <- ordinal:
		case <-ctx.Done():
			log.Emit(logger.STOP, "Run interrupted, waiting for in-flight rows to finish\n")
			break feeding
		}
	}
	close(feed)
	pool.Wait()

	summary := &Summary{Elapsed: time.Since(startedAt)}
	for _, item := range service.items {
		switch item.State {
		case COMPLETE:
			summary.OK++
		case FAILED:
			summary.Failed++
		case SKIPPED:
			summary.Skipped++
		}
	}

	return summary, nil
}

// AllItems returns the job items for this run, one per ordinal in the
// configured range.
func (service *batchService) AllItems() []*JobItem {
	return service.items
}

// processOrdinal runs one row through the pipeline and records its
// outcome on the corresponding job item.
func (service *batchService) processOrdinal(ctx context.Context, ordinal int) {
	item := service.items[ordinal-service.config.Start]
	item.State = PROCESSING

	outcome, reason := service.processJob(ctx, item)
	switch outcome {
	case COMPLETE:
		item.State = COMPLETE
		log.Emit(logger.SUCCESS, "[%d] %s OK\n", item.Ordinal, item.ID)
	case SKIPPED:
		item.State = SKIPPED
		log.Emit(logger.INFO, "[%d] %s SKIP (embedding already present)\n", item.Ordinal, item.ID)
	default:
		item.State = FAILED
		item.FailureReason = reason
		log.Emit(logger.ERROR, "[%d] %s FAIL (%s)\n", item.Ordinal, item.ID, reason)
	}
}

// processJob executes the pipeline stages for one job. Any stage
// failure short-circuits the remaining stages and yields a tagged
// reason; the job's scratch area (raw download and intermediate
// still) is reclaimed unconditionally.
func (service *batchService) processJob(ctx context.Context, item *JobItem) (JobItemState, string) {
	row := service.rows.Row(item.Ordinal)
	if row.URL == "" {
		return FAILED, "no_url_in_row"
	}

	if !service.config.Overwrite && service.store.HasEmbedding(item.ID) {
		return SKIPPED, ""
	}

	if _, err := service.store.EnsureJob(item.ID); err != nil {
		return FAILED, fmt.Sprintf("job_dir_error: %s", err.Error())
	}
	if service.config.Overwrite {
		service.store.ClearArtifacts(item.ID)
	}

	// Provenance goes down before any network I/O so a crash
	// mid-download still leaves enough to identify the row.
	service.store.WriteProvenance(item.ID, row.URL, row.Fields)

	scratch := filepath.Join(service.scratchRoot, item.ID)
	if err := os.MkdirAll(scratch, os.ModeDir|os.ModePerm); err != nil {
		return FAILED, fmt.Sprintf("job_dir_error: %s", err.Error())
	}
	defer os.RemoveAll(scratch)

	rawPath := filepath.Join(scratch, "media.raw")
	mediaType, err := service.fetcher.Fetch(ctx, row.URL, rawPath)
	if err != nil {
		return FAILED, fmt.Sprintf("download_error: %s", err.Error())
	}
	service.store.WriteMediaType(item.ID, mediaType)

	stillPath := filepath.Join(scratch, "first_frame.png")
	if err := service.extractor.ExtractFrame(ctx, rawPath, mediaType, stillPath); err != nil {
		if extractionErr, ok := frame.AsError(err); ok {
			return FAILED, extractionErr.Error()
		}

		return FAILED, fmt.Sprintf("first_frame_error: %s", err.Error())
	}

	vector, err := service.embedder.EmbedImage(ctx, stillPath)
	if err != nil {
		return FAILED, fmt.Sprintf("embed_error: %s", err.Error())
	}
	if err := service.store.WriteEmbedding(item.ID, vector); err != nil {
		return FAILED, fmt.Sprintf("embed_error: %s", err.Error())
	}

	return COMPLETE, ""
}
