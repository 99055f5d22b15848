package internal

import (
	"context"
	"fmt"

	"github.com/hbomb79/Glimpse/internal/batch"
	"github.com/hbomb79/Glimpse/internal/classify"
	"github.com/hbomb79/Glimpse/internal/embed"
	"github.com/hbomb79/Glimpse/internal/fetch"
	"github.com/hbomb79/Glimpse/internal/frame"
	"github.com/hbomb79/Glimpse/internal/source"
	"github.com/hbomb79/Glimpse/internal/store"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

var log = logger.Get("Core")

// RunOptions are the per-invocation operational parameters, supplied
// on the command line rather than via configuration.
type RunOptions struct {
	InputPath  string
	URLColumn  string
	OutputRoot string
	Start      int
	End        int
	Overwrite  bool
}

// Glimpse is the top-level object for the pipeline; it wires the
// classifier, fetcher, frame extractor, embedder gateway and job
// store together and drives a single batch run.
type glimpseImpl struct {
	config GlimpseConfig
	opts   RunOptions
}

func New(config GlimpseConfig, opts RunOptions) *glimpseImpl {
	return &glimpseImpl{config: config, opts: opts}
}

// Run resolves the input rows and processes the requested range to
// completion. The returned error is reserved for fatal startup
// conditions (unreadable input, invalid range, unusable provider
// config); per-row failures are reported in the summary and do NOT
// surface here.
func (glimpse *glimpseImpl) Run(ctx context.Context) error {
	rows, err := source.Load(glimpse.opts.InputPath, glimpse.opts.URLColumn)
	if err != nil {
		return err
	}

	outputRoot := glimpse.opts.OutputRoot
	if outputRoot == "" {
		outputRoot = glimpse.config.OutputRoot
	}
	jobStore, err := store.New(outputRoot)
	if err != nil {
		return err
	}

	embedder, err := embed.NewOpenAICompatible(glimpse.config.Embedder)
	if err != nil {
		return fmt.Errorf("failed to construct embedder gateway: %w", err)
	}

	classifier := classify.New(glimpse.config.Classifier)
	service, err := batch.New(
		batch.Config{
			Start:       glimpse.opts.Start,
			End:         glimpse.opts.End,
			Overwrite:   glimpse.opts.Overwrite,
			Parallelism: glimpse.config.Concurrent.BatchWorkers,
		},
		rows,
		fetch.New(glimpse.config.Fetch, classifier),
		frame.New(glimpse.config.Frame),
		embedder,
		jobStore,
	)
	if err != nil {
		return err
	}

	log.Emit(logger.NEW, "Beginning batch embedding run over %s using model %s\n", glimpse.opts.InputPath, embedder.Model())
	summary, err := service.Run(ctx)
	if err != nil {
		return err
	}

	log.Emit(logger.INFO, "Done. OK=%d, FAIL=%d, SKIP=%d, elapsed=%.1fs\n",
		summary.OK, summary.Failed, summary.Skipped, summary.Elapsed.Seconds())
	return nil
}
