package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/internal/metrics"
	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/pkg/config"
	"github.com/payguard/backend/pkg/logger"
)

// ErrQueueFull is returned when the work buffer cannot accept another job.
var ErrQueueFull = errors.New("validation queue is full")

// Job status values. Transitions are one-directional:
// pending -> processing -> completed | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is one queued validation request.
type Job struct {
	ID          string                          `json:"id"`
	Scheme      string                          `json:"scheme"`
	Record      *payment.CanonicalPaymentRecord `json:"record"`
	Status      string                          `json:"status"`
	Result      *evaluation.Result              `json:"result,omitempty"`
	Error       string                          `json:"error,omitempty"`
	BatchID     string                          `json:"batch_id,omitempty"`
	Position    int                             `json:"position"`
	QueuedAt    time.Time                       `json:"queued_at"`
	ProcessedAt *time.Time                      `json:"processed_at,omitempty"`
}

// Stats is the cumulative processing tally. Counters are monotonic and
// independent of the bounded tracking window.
type Stats struct {
	TotalProcessed int `json:"total_processed"`
	Compliant      int `json:"compliant"`
	NonCompliant   int `json:"non_compliant"`
	Processing     int `json:"processing"`
	QueueSize      int `json:"queue_size"`
}

// Evaluator runs compliance analysis for one record.
type Evaluator interface {
	Evaluate(ctx context.Context, record *payment.CanonicalPaymentRecord) (*evaluation.Result, error)
}

// ResultSink receives completed results for persistence. Sink failures are
// logged, never propagated into job state.
type ResultSink interface {
	SaveResult(ctx context.Context, jobID, batchID string, result *evaluation.Result) error
}

// Queue is a bounded validation queue with background workers. The tracking
// window holds at most capacity jobs and evicts the oldest first; workers
// hold their own job references, so an evicted pending job still runs to
// completion.
type Queue struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
	seq   int
	stats Stats

	capacity  int
	workers   int
	work      chan *Job
	evaluator Evaluator
	sink      ResultSink

	wg sync.WaitGroup
}

func New(evaluator Evaluator, sink ResultSink, cfg config.QueueConfig) *Queue {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	return &Queue{
		jobs:      make(map[string]*Job),
		capacity:  capacity,
		workers:   workers,
		work:      make(chan *Job, capacity),
		evaluator: evaluator,
		sink:      sink,
	}
}

// Start launches the worker pool. Workers drain the work buffer until Stop
// is called; ctx bounds the evaluation calls, not the pool lifetime.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	logger.Info("Validation queue started",
		zap.Int("workers", q.workers),
		zap.Int("capacity", q.capacity),
	)
}

// Stop closes the work buffer and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	close(q.work)
	q.wg.Wait()
}

// Submit enqueues a record for background validation and returns the job
// immediately.
func (q *Queue) Submit(record *payment.CanonicalPaymentRecord) (*Job, error) {
	return q.submit(record, "")
}

// SubmitBatch enqueues every record under a shared batch id. All jobs are
// tracked before the call returns; individual failures do not affect
// siblings.
func (q *Queue) SubmitBatch(records []*payment.CanonicalPaymentRecord) (string, []*Job, error) {
	q.mu.Lock()
	q.seq++
	batchID := fmt.Sprintf("BATCH_%s_%d", time.Now().UTC().Format("20060102150405"), q.seq)
	q.mu.Unlock()

	jobs := make([]*Job, 0, len(records))
	for _, record := range records {
		job, err := q.submit(record, batchID)
		if err != nil {
			return batchID, jobs, err
		}
		jobs = append(jobs, job)
	}
	return batchID, jobs, nil
}

func (q *Queue) submit(record *payment.CanonicalPaymentRecord, batchID string) (*Job, error) {
	q.mu.Lock()

	q.seq++
	job := &Job{
		ID:       fmt.Sprintf("MSG_%s_%d", time.Now().UTC().Format("20060102150405"), q.seq),
		Scheme:   record.Scheme,
		Record:   record,
		Status:   StatusPending,
		BatchID:  batchID,
		QueuedAt: time.Now().UTC(),
	}

	if len(q.order) >= q.capacity {
		q.evictOldestLocked()
	}
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	job.Position = len(q.order)
	q.stats.QueueSize = len(q.order)
	metrics.QueueDepth.Set(float64(len(q.order)))

	q.mu.Unlock()

	select {
	case q.work <- job:
	default:
		q.mu.Lock()
		job.Status = StatusFailed
		job.Error = ErrQueueFull.Error()
		q.mu.Unlock()
		return nil, ErrQueueFull
	}

	return job, nil
}

// evictOldestLocked drops the oldest tracked job. Statistics counters are
// never touched here.
func (q *Queue) evictOldestLocked() {
	oldest := q.order[0]
	q.order = q.order[1:]
	delete(q.jobs, oldest)
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for job := range q.work {
		q.process(ctx, job)
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	q.mu.Lock()
	if job.Status != StatusPending {
		q.mu.Unlock()
		return
	}
	job.Status = StatusProcessing
	q.stats.Processing++
	q.mu.Unlock()
	metrics.JobsInFlight.Inc()

	result, err := q.evaluator.Evaluate(ctx, job.Record)

	now := time.Now().UTC()

	q.mu.Lock()
	job.ProcessedAt = &now
	q.stats.Processing--
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		result.QueuePosition = job.Position
		job.Status = StatusCompleted
		job.Result = result
		q.stats.TotalProcessed++
		if result.Status == evaluation.StatusCompliant {
			q.stats.Compliant++
		} else {
			q.stats.NonCompliant++
		}
	}
	q.mu.Unlock()

	metrics.JobsInFlight.Dec()
	if err != nil {
		metrics.JobsProcessed.WithLabelValues("failed").Inc()
		logger.Error("Job evaluation failed",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return
	}
	metrics.JobsProcessed.WithLabelValues("completed").Inc()

	if q.sink != nil {
		if err := q.sink.SaveResult(ctx, job.ID, job.BatchID, result); err != nil {
			logger.Warn("Failed to persist validation result",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
		}
	}
}

// Status returns a snapshot of the job, or false if it was never tracked or
// has been evicted from the window.
func (q *Queue) Status(jobID string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns a snapshot of the tracked jobs in submission order.
func (q *Queue) List() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, 0, len(q.order))
	for _, id := range q.order {
		if job, ok := q.jobs[id]; ok {
			jobs = append(jobs, *job)
		}
	}
	return jobs
}

// Statistics returns the cumulative counters plus the current window depth.
func (q *Queue) Statistics() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.QueueSize = len(q.order)
	return stats
}
