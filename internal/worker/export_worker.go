package worker

import (
	"context"
	"errors"
	"sync"

	"peregovorka/internal/domain"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the job buffer has no room for another
// export request.
var ErrQueueFull = errors.New("export queue is full")

// ExportJob asks for a workbook covering [From, To] inclusive.
type ExportJob struct {
	From models.Date
	To   models.Date
}

// ExportWorker drains a buffered job queue and runs the exporter with
// retries. One goroutine processes jobs in order; duplicate jobs for the
// same range simply overwrite the previous file.
type ExportWorker struct {
	exporter domain.Exporter
	backoff  Backoff
	logger   *zerolog.Logger

	jobs chan ExportJob
	wg   sync.WaitGroup
	once sync.Once
}

func NewExportWorker(exporter domain.Exporter, backoff Backoff, queueSize int, logger *zerolog.Logger) *ExportWorker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &ExportWorker{
		exporter: exporter,
		backoff:  backoff,
		logger:   logger,
		jobs:     make(chan ExportJob, queueSize),
	}
}

// Start launches the processing goroutine. It runs until ctx is canceled
// and the queue is drained or Stop is called.
func (w *ExportWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-w.jobs:
				if !ok {
					return
				}
				w.process(ctx, job)
			}
		}
	}()
}

// Enqueue adds a job without blocking.
func (w *ExportWorker) Enqueue(job ExportJob) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for the in-flight job to finish.
func (w *ExportWorker) Stop() {
	w.once.Do(func() { close(w.jobs) })
	w.wg.Wait()
}

func (w *ExportWorker) process(ctx context.Context, job ExportJob) {
	attempts := w.backoff.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		path, err := w.exporter.ExportRange(ctx, job.From, job.To)
		if err == nil {
			w.logger.Info().
				Str("from", job.From.Key()).
				Str("to", job.To.Key()).
				Str("file_path", path).
				Msg("export job finished")
			return
		}
		lastErr = err

		w.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("from", job.From.Key()).
			Msg("export attempt failed")

		if attempt < attempts {
			if err := sleep(ctx, w.backoff.Delay(attempt)); err != nil {
				return
			}
		}
	}

	w.logger.Error().
		Err(lastErr).
		Str("from", job.From.Key()).
		Str("to", job.To.Key()).
		Msg("export job dropped after retries")
}
