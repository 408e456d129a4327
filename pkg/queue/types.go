package queue

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultQueueName is the queue used when none is specified.
const DefaultQueueName = "default"

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Priority represents task priority (0-100, higher is more important)
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityMedium  Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within valid range
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// Task is a unit of deferred work.
// TenantContext holds the serialized tenant frame captured at enqueue time;
// it is empty when the task was enqueued outside any tenant scope.
type Task struct {
	ID            uuid.UUID       `json:"id"`
	Queue         string          `json:"queue"`
	TaskName      string          `json:"task_name"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	TenantContext json.RawMessage `json:"tenant_context,omitempty"`
	Status        TaskStatus      `json:"status"`
	Priority      Priority        `json:"priority"`
	RetryCount    int8            `json:"retry_count"`
	MaxRetries    int8            `json:"max_retries"`
	ScheduledAt   time.Time       `json:"scheduled_at"`
	LockedUntil   *time.Time      `json:"locked_until,omitempty"`
	LockedBy      *uuid.UUID      `json:"locked_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	Error         *string         `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TasksDlq is a task that exhausted its retries or could not be run at all.
type TasksDlq struct {
	ID            uuid.UUID       `json:"id"`
	TaskID        uuid.UUID       `json:"task_id"`
	Queue         string          `json:"queue"`
	TaskName      string          `json:"task_name"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	TenantContext json.RawMessage `json:"tenant_context,omitempty"`
	Priority      Priority        `json:"priority"`
	Error         string          `json:"error"`
	RetryCount    int8            `json:"retry_count"`
	FailedAt      time.Time       `json:"failed_at"`
	CreatedAt     time.Time       `json:"created_at"`
}
