package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/pkg/config"
)

type fakeEvaluator struct {
	mu    sync.Mutex
	calls int
	delay time.Duration

	// failOn marks record ids whose evaluation errors out.
	failOn map[string]bool
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, record *payment.CanonicalPaymentRecord) (*evaluation.Result, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failOn[record.ID] {
		return nil, errors.New("evaluation blew up")
	}

	status := evaluation.StatusCompliant
	var violations []evaluation.Violation
	if strings.HasPrefix(record.ID, "BAD") {
		status = evaluation.StatusNonCompliant
		violations = []evaluation.Violation{{Severity: "high", Rule: "R", Issue: "I", Impact: "X", Suggestion: "S"}}
	}

	return &evaluation.Result{
		RecordID:       record.ID,
		Scheme:         record.Scheme,
		Status:         status,
		Violations:     violations,
		RulebookSource: evaluation.SourceDefaultRulebook,
		EvaluatedAt:    time.Now(),
	}, nil
}

type captureSink struct {
	mu    sync.Mutex
	saved []string
}

func (s *captureSink) SaveResult(ctx context.Context, jobID, batchID string, result *evaluation.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, jobID)
	return nil
}

func record(id string) *payment.CanonicalPaymentRecord {
	return &payment.CanonicalPaymentRecord{ID: id, Scheme: "SEPA", Amount: "100.00"}
}

func newTestQueue(t *testing.T, eval Evaluator, capacity, workers int) *Queue {
	t.Helper()
	q := New(eval, nil, config.QueueConfig{Capacity: capacity, Workers: workers})
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func waitProcessed(t *testing.T, q *Queue, terminal int) {
	t.Helper()
	require.Eventually(t, func() bool {
		stats := q.Statistics()
		return stats.TotalProcessed >= terminal && stats.Processing == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestJobLifecycle(t *testing.T) {
	q := newTestQueue(t, &fakeEvaluator{}, 10, 2)

	job, err := q.Submit(record("OK_1"))
	require.NoError(t, err)
	require.Equal(t, StatusPending, job.Status)
	require.Contains(t, job.ID, "MSG_")
	require.Equal(t, 1, job.Position)

	require.Eventually(t, func() bool {
		got, ok := q.Status(job.ID)
		return ok && got.Status == StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	got, ok := q.Status(job.ID)
	require.True(t, ok)
	require.NotNil(t, got.Result)
	require.NotNil(t, got.ProcessedAt)
	require.Equal(t, evaluation.StatusCompliant, got.Result.Status)
}

func TestBatchIDsAreUniqueWithinOneSecond(t *testing.T) {
	q := newTestQueue(t, &fakeEvaluator{}, 100, 1)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		batchID, jobs, err := q.SubmitBatch([]*payment.CanonicalPaymentRecord{record(fmt.Sprintf("REC%d", i))})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		require.True(t, strings.HasPrefix(batchID, "BATCH_"))
		require.False(t, seen[batchID], "batch id %q reused", batchID)
		seen[batchID] = true
	}
}

func TestStatisticsInvariantUnderLoad(t *testing.T) {
	eval := &fakeEvaluator{}
	q := newTestQueue(t, eval, 200, 4)

	records := make([]*payment.CanonicalPaymentRecord, 0, 60)
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("OK_%d", i)
		if i%3 == 0 {
			id = fmt.Sprintf("BAD_%d", i)
		}
		records = append(records, record(id))
	}

	batchID, jobs, err := q.SubmitBatch(records)
	require.NoError(t, err)
	require.Len(t, jobs, 60)
	require.Contains(t, batchID, "BATCH_")
	for _, job := range jobs {
		require.Equal(t, batchID, job.BatchID)
	}

	waitProcessed(t, q, 60)

	stats := q.Statistics()
	require.Equal(t, 60, stats.TotalProcessed)
	require.Equal(t, stats.TotalProcessed, stats.Compliant+stats.NonCompliant)
	require.Equal(t, 20, stats.NonCompliant)
	require.Equal(t, 0, stats.Processing)
}

func TestFailedJobsDoNotCountAsProcessed(t *testing.T) {
	eval := &fakeEvaluator{failOn: map[string]bool{"DOOMED": true}}
	q := newTestQueue(t, eval, 10, 1)

	bad, err := q.Submit(record("DOOMED"))
	require.NoError(t, err)
	good, err := q.Submit(record("OK_1"))
	require.NoError(t, err)

	waitProcessed(t, q, 1)

	badJob, ok := q.Status(bad.ID)
	require.True(t, ok)
	require.Equal(t, StatusFailed, badJob.Status)
	require.Contains(t, badJob.Error, "blew up")
	require.Nil(t, badJob.Result)

	goodJob, ok := q.Status(good.ID)
	require.True(t, ok)
	require.Equal(t, StatusCompleted, goodJob.Status)

	stats := q.Statistics()
	require.Equal(t, 1, stats.TotalProcessed, "failed jobs do not enter the compliance tallies")
	require.Equal(t, stats.TotalProcessed, stats.Compliant+stats.NonCompliant)
}

func TestEvictionKeepsStatisticsIntact(t *testing.T) {
	eval := &fakeEvaluator{}
	q := newTestQueue(t, eval, 3, 2)

	var jobIDs []string
	for i := 0; i < 5; i++ {
		job, err := q.Submit(record(fmt.Sprintf("OK_%d", i)))
		require.NoError(t, err)
		jobIDs = append(jobIDs, job.ID)
	}

	waitProcessed(t, q, 5)

	// Only the newest three jobs stay in the window; the evicted two were
	// still processed and counted.
	list := q.List()
	require.Len(t, list, 3)

	_, ok := q.Status(jobIDs[0])
	require.False(t, ok, "oldest job is evicted from the window")
	_, ok = q.Status(jobIDs[4])
	require.True(t, ok)

	stats := q.Statistics()
	require.Equal(t, 5, stats.TotalProcessed)
	require.Equal(t, 3, stats.QueueSize)
	require.Equal(t, stats.TotalProcessed, stats.Compliant+stats.NonCompliant)
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	q := newTestQueue(t, &fakeEvaluator{delay: 20 * time.Millisecond}, 10, 1)

	for i := 0; i < 4; i++ {
		_, err := q.Submit(record(fmt.Sprintf("OK_%d", i)))
		require.NoError(t, err)
	}

	list := q.List()
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		require.True(t, list[i-1].QueuedAt.Before(list[i].QueuedAt) || list[i-1].QueuedAt.Equal(list[i].QueuedAt))
	}
}

func TestResultSinkReceivesCompletedJobs(t *testing.T) {
	sink := &captureSink{}
	q := New(&fakeEvaluator{}, sink, config.QueueConfig{Capacity: 10, Workers: 1})
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	job, err := q.Submit(record("OK_1"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.saved) == 1 && sink.saved[0] == job.ID
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStatusForUnknownJob(t *testing.T) {
	q := newTestQueue(t, &fakeEvaluator{}, 10, 1)

	_, ok := q.Status("MSG_missing")
	require.False(t, ok)
}
