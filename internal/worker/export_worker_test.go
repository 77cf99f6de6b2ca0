package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"peregovorka/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{MaxAttempts: 5, Initial: time.Second, Max: 5 * time.Second, Factor: 2}

	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(3))
	assert.Equal(t, 5*time.Second, b.Delay(4), "clamped to Max")
	assert.Equal(t, time.Second, b.Delay(0), "attempt floors at 1")
}

func TestBackoffZeroValueDefaults(t *testing.T) {
	var b Backoff
	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
}

// countingExporter fails a configured number of times before succeeding.
type countingExporter struct {
	mu        sync.Mutex
	failures  int
	calls     int
	succeeded chan struct{}
}

func (e *countingExporter) ExportRange(ctx context.Context, from, to models.Date) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls <= e.failures {
		return "", errors.New("disk full")
	}
	if e.succeeded != nil {
		close(e.succeeded)
		e.succeeded = nil
	}
	return "/tmp/out.xlsx", nil
}

func (e *countingExporter) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestExportWorkerProcessesJob(t *testing.T) {
	logger := zerolog.Nop()
	exporter := &countingExporter{succeeded: make(chan struct{})}
	done := exporter.succeeded
	w := NewExportWorker(exporter, DefaultBackoff(), 4, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	from := models.NewDate(2025, time.March, 3)
	require.NoError(t, w.Enqueue(ExportJob{From: from, To: from.AddDays(4)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("export job never ran")
	}

	cancel()
	w.Stop()
	assert.Equal(t, 1, exporter.callCount())
}

func TestExportWorkerRetries(t *testing.T) {
	logger := zerolog.Nop()
	exporter := &countingExporter{failures: 2, succeeded: make(chan struct{})}
	done := exporter.succeeded
	backoff := Backoff{MaxAttempts: 3, Initial: time.Millisecond, Factor: 2}
	w := NewExportWorker(exporter, backoff, 4, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	from := models.NewDate(2025, time.March, 4)
	require.NoError(t, w.Enqueue(ExportJob{From: from, To: from}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("export job never succeeded")
	}

	cancel()
	w.Stop()
	assert.Equal(t, 3, exporter.callCount(), "two failures then success")
}

func TestExportWorkerQueueFull(t *testing.T) {
	logger := zerolog.Nop()
	exporter := &countingExporter{}
	w := NewExportWorker(exporter, DefaultBackoff(), 1, &logger)
	// Worker not started: the buffer holds one job, the next is rejected.

	from := models.NewDate(2025, time.March, 5)
	require.NoError(t, w.Enqueue(ExportJob{From: from, To: from}))
	err := w.Enqueue(ExportJob{From: from, To: from})
	assert.ErrorIs(t, err, ErrQueueFull)
}
