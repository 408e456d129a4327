package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for task creation
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// TenantEncoder captures the tenant frame current in ctx.
// It returns nil data when ctx carries no frame.
// *tenantctx.Store implements it.
type TenantEncoder interface {
	Encode(ctx context.Context) ([]byte, error)
}

// Enqueuer handles task enqueueing
type Enqueuer struct {
	repo            EnqueuerRepository
	tenants         TenantEncoder
	defaultQueue    string
	defaultPriority Priority
	now             func() time.Time
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		defaultQueue:    DefaultQueueName,
		defaultPriority: PriorityDefault,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:            repo,
		tenants:         options.tenants,
		defaultQueue:    options.defaultQueue,
		defaultPriority: options.defaultPriority,
		now:             options.now,
	}, nil
}

// Enqueue adds a new task to the queue.
// If the Enqueuer has a TenantEncoder, the tenant frame current in ctx is
// stored with the task and restored around its handler.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	options := &enqueueOptions{
		queue:      e.defaultQueue,
		priority:   e.defaultPriority,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.priority.Valid() {
		return ErrInvalidPriority
	}

	task, err := e.buildTask(ctx, payload, options)
	if err != nil {
		return err
	}

	if err := e.repo.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task %q in queue %q: %w", task.TaskName, task.Queue, err)
	}

	return nil
}

func (e *Enqueuer) buildTask(ctx context.Context, payload any, options *enqueueOptions) (*Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
	}

	var tenantContext []byte
	if e.tenants != nil {
		tenantContext, err = e.tenants.Encode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to capture tenant context: %w", err)
		}
	}

	taskName := options.taskName
	if taskName == "" {
		taskName = qualifiedStructName(payload)
	}

	now := e.now()
	scheduledAt := now
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = scheduledAt.Add(options.delay)
	}

	return &Task{
		ID:            uuid.New(),
		Queue:         options.queue,
		TaskName:      taskName,
		Payload:       payloadBytes,
		TenantContext: tenantContext,
		Status:        TaskStatusPending,
		Priority:      options.priority,
		MaxRetries:    options.maxRetries,
		ScheduledAt:   scheduledAt,
		CreatedAt:     now,
	}, nil
}
