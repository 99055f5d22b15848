package worker

import (
	"context"

	"github.com/hbomb79/Glimpse/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type WorkerStatus int

const (
	Idle WorkerStatus = iota
	Working
	Finished
)

// WorkFn is the task executed by a worker for every ordinal it
// claims from the pool's feed channel.
type WorkFn func(label string, ordinal int)

type Worker interface {
	Start(context.Context, <-chan int)
	Status() WorkerStatus
	Label() string
}

type taskWorker struct {
	label         string
	task          WorkFn
	currentStatus WorkerStatus
}

func NewWorker(label string, task WorkFn) *taskWorker {
	return &taskWorker{
		label: label,
		task:  task,
	}
}

// Start consumes ordinals from the feed channel until it closes, or
// until the provided context is cancelled. Each claimed ordinal is
// handed to the worker's task; a task is always allowed to finish
// once claimed, cancellation only prevents claiming further work.
func (worker *taskWorker) Start(ctx context.Context, feed <-chan int) {
	workerLogger.Emit(logger.DEBUG, "Worker %s is starting\n", worker.label)
	for {
		select {
		case <-ctx.Done():
			workerLogger.Emit(logger.STOP, "Worker %s stopping due to context cancellation\n", worker.label)
			worker.currentStatus = Finished
			return
		case ordinal, ok := <-feed:
			if !ok {
				workerLogger.Emit(logger.DEBUG, "Worker %s has drained the feed and is stopping\n", worker.label)
				worker.currentStatus = Finished
				return
			}

			worker.currentStatus = Working
			worker.task(worker.label, ordinal)
			worker.currentStatus = Idle
		}
	}
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return worker.currentStatus
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}
