package queue_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantscope/pkg/queue"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

type MockWorkerRepository struct {
	mock.Mock
}

func (m *MockWorkerRepository) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*queue.Task, error) {
	args := m.Called(ctx, workerID, queues, lockDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Task), args.Error(1)
}

func (m *MockWorkerRepository) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *MockWorkerRepository) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	return m.Called(ctx, taskID, errorMsg).Error(0)
}

func (m *MockWorkerRepository) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWorker(t *testing.T, repo queue.WorkerRepository, handlers []queue.Handler, opts ...queue.WorkerOption) *queue.Worker {
	t.Helper()

	opts = append([]queue.WorkerOption{
		queue.WithPullInterval(5 * time.Millisecond),
		queue.WithWorkerLogger(quietLogger()),
	}, opts...)
	w, err := queue.NewWorker(repo, opts...)
	require.NoError(t, err)
	w.RegisterHandlers(handlers...)
	require.NoError(t, w.Start(context.Background()))
	return w
}

func TestWorker_Lifecycle(t *testing.T) {
	t.Parallel()

	_, err := queue.NewWorker(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	w, err := queue.NewWorker(storage, queue.WithWorkerLogger(quietLogger()))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Start(context.Background()), queue.ErrNoHandlers)
	assert.Error(t, w.Stop())

	w.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error { return nil }))
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}

func TestWorker_FromConfig(t *testing.T) {
	t.Parallel()

	w, err := queue.NewWorkerFromConfig(new(MockWorkerRepository), queue.Config{
		PollInterval:       time.Second,
		LockTimeout:        time.Minute,
		MaxConcurrentTasks: 4,
	})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestWorker_RestoresTenantContext(t *testing.T) {
	t.Parallel()

	store := tenantctx.NewStore()
	storage := queue.NewMemoryStorage()
	defer storage.Close()

	type seen struct {
		tenant  string
		ok      bool
		userID  any
		payload int
	}
	results := make(chan seen, 2)

	handler := queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error {
		id, ok := store.TenantID(ctx)
		user, _ := store.Metadata(ctx, "user_id")
		results <- seen{tenant: id, ok: ok, userID: user, payload: p.Number}
		return nil
	})

	enq, err := queue.NewEnqueuer(storage, queue.WithTenantEncoder(store))
	require.NoError(t, err)

	require.NoError(t, store.Run(context.Background(), "acme", func(ctx context.Context) error {
		return enq.Enqueue(ctx, invoicePayload{Number: 1})
	}, tenantctx.WithMetadata("user_id", "u1")))

	w := startWorker(t, storage, []queue.Handler{handler}, queue.WithTenantRestorer(store))
	defer func() { require.NoError(t, w.Stop()) }()

	select {
	case got := <-results:
		assert.True(t, got.ok)
		assert.Equal(t, "acme", got.tenant)
		assert.Equal(t, "u1", got.userID)
		assert.Equal(t, 1, got.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}

	// A task enqueued without a scope runs without a tenant.
	require.NoError(t, enq.Enqueue(context.Background(), invoicePayload{Number: 2}))
	select {
	case got := <-results:
		assert.False(t, got.ok)
		assert.Equal(t, 2, got.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
}

func TestWorker_ExpiredTenantContextIsNotRenewed(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := tenantctx.NewStore(tenantctx.WithClock(func() time.Time { return now }))
	later := tenantctx.NewStore(tenantctx.WithClock(func() time.Time { return now.Add(time.Hour) }))

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	errs := make(chan error, 1)
	handler := queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error {
		_, err := later.Frame(ctx)
		errs <- err
		return nil
	})

	enq, err := queue.NewEnqueuer(storage, queue.WithTenantEncoder(store))
	require.NoError(t, err)
	require.NoError(t, store.Run(context.Background(), "acme", func(ctx context.Context) error {
		return enq.Enqueue(ctx, invoicePayload{})
	}, tenantctx.WithTTL(time.Minute)))

	w := startWorker(t, storage, []queue.Handler{handler}, queue.WithTenantRestorer(later))
	defer func() { require.NoError(t, w.Stop()) }()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, tenantctx.ErrContextExpired)
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
}

func TestWorker_MalformedTenantContextGoesToDLQ(t *testing.T) {
	t.Parallel()

	task := &queue.Task{
		ID:            uuid.New(),
		Queue:         queue.DefaultQueueName,
		TaskName:      "queue_test.invoicePayload",
		Payload:       []byte(`{}`),
		TenantContext: []byte(`{"created_at":"nope"}`),
		MaxRetries:    3,
	}

	repo := new(MockWorkerRepository)
	done := make(chan struct{})
	repo.On("ClaimTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(task, nil).Once()
	repo.On("ClaimTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, queue.ErrNoTaskToClaim).Maybe()
	repo.On("FailTask", mock.Anything, task.ID, mock.MatchedBy(func(msg string) bool {
		return assert.Contains(t, msg, "failed to restore tenant context")
	})).Return(nil).Once()
	repo.On("MoveToDLQ", mock.Anything, task.ID).Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

	handler := queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error {
		t.Error("handler must not run with a malformed tenant context")
		return nil
	})

	w := startWorker(t, repo, []queue.Handler{handler}, queue.WithTenantRestorer(tenantctx.NewStore()))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not moved to DLQ")
	}
	require.NoError(t, w.Stop())
	repo.AssertExpectations(t)
}

func TestWorker_FailureRetriesThenDeadLetters(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	attempts := make(chan struct{}, 4)
	handler := queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error {
		attempts <- struct{}{}
		return errors.New("boom")
	})

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), invoicePayload{}, queue.WithMaxRetries(1)))

	w := startWorker(t, storage, []queue.Handler{handler})

	select {
	case <-attempts:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
	require.Eventually(t, func() bool { return len(storage.DeadLetters()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Equal(t, "boom", storage.DeadLetters()[0].Error)
}

func TestWorker_MissingHandlerGoesToDLQ(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), invoicePayload{}, queue.WithTaskName("unknown")))

	w := startWorker(t, storage, []queue.Handler{
		queue.NewTaskHandler(func(ctx context.Context, p invoicePayload) error { return nil }),
	})

	require.Eventually(t, func() bool { return len(storage.DeadLetters()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Stop())
}
