// Package worker delivers booking notifications from a persisted outbox.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomstay/internal/domain"
	"roomstay/internal/events"
	"roomstay/internal/metrics"
	"roomstay/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier delivers one event to its audience.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload events.BookingEventPayload) error
}

type Options struct {
	QueueKey      string
	DeadLetterKey string
	PollInterval  time.Duration
	BatchSize     int
	// Lease is how long a claimed task stays reserved before another
	// worker may take it over.
	Lease time.Duration
}

// NotificationWorker consumes notification_queue tasks. Enqueued tasks are
// persisted first, then handed over through Redis or an in-memory channel;
// anything missed is picked up by polling the store. Every path claims the
// row before delivering, so a task reaching the worker twice is sent once.
// A worker that dies mid-delivery releases its tasks when the lease runs out.
type NotificationWorker struct {
	store         domain.TaskStore
	notifier      Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotificationTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	lease         time.Duration
	logger        *zerolog.Logger
}

func NewNotificationWorker(
	store domain.TaskStore,
	notifier Notifier,
	redisClient *redis.Client,
	retry RetryPolicy,
	opts Options,
	logger *zerolog.Logger,
) *NotificationWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.QueueKey == "" {
		opts.QueueKey = "roomstay:notifications"
	}
	if opts.DeadLetterKey == "" {
		opts.DeadLetterKey = opts.QueueKey + ":deadletter"
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 20
	}
	if opts.Lease == 0 {
		opts.Lease = 5 * time.Minute
	}

	return &NotificationWorker{
		store:         store,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.NotificationTask, models.WorkerQueueSize),
		redisQueueKey: opts.QueueKey,
		deadLetterKey: opts.DeadLetterKey,
		pollInterval:  opts.PollInterval,
		batchSize:     opts.BatchSize,
		lease:         opts.Lease,
		logger:        logger,
	}
}

// Subscribe routes every booking lifecycle event on the bus into the outbox.
func (w *NotificationWorker) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(events.BookingEventTypes, w.HandleEvent)
}

// HandleEvent is an events.EventHandler. The publisher's request context is
// gone by the time a handler may run, so enqueueing uses its own deadline.
func (w *NotificationWorker) HandleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s event: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.EnqueueTask(ctx, event.Type, payload)
}

// EnqueueTask persists the notification and schedules it via redis or the in-memory queue.
func (w *NotificationWorker) EnqueueTask(ctx context.Context, eventType string, payload events.BookingEventPayload) error {
	if eventType == "" {
		return errors.New("event type is required")
	}
	if payload.BookingID == 0 {
		return errors.New("booking id is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.NotificationTask{
		EventType: eventType,
		BookingID: payload.BookingID,
		Payload:   string(payloadBytes),
		Status:    models.TaskPending,
	}
	if err := w.store.CreateNotificationTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notification task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, &task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notification worker started")
	defer w.logger.Info().Msg("notification worker stopped")

	for ctx.Err() == nil {
		if !w.RunOnce(ctx) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// RunOnce delivers the next available work and reports whether there was any.
func (w *NotificationWorker) RunOnce(ctx context.Context) bool {
	if t, ok := w.tryLocalQueue(); ok {
		w.processTask(ctx, &t)
		return true
	}

	if t, ok := w.tryRedis(ctx); ok {
		w.processTask(ctx, &t)
		return true
	}

	return w.pollStore(ctx)
}

// pollStore claims a batch of due tasks and delivers them.
func (w *NotificationWorker) pollStore(ctx context.Context) bool {
	tasks, err := w.store.ClaimNotificationTasks(ctx, w.batchSize, w.leaseDeadline())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("claim pending notification tasks")
		}
		return false
	}
	for i := range tasks {
		w.deliver(ctx, &tasks[i])
	}
	return len(tasks) > 0
}

func (w *NotificationWorker) leaseDeadline() time.Time {
	return time.Now().UTC().Add(w.lease)
}

func (w *NotificationWorker) tryLocalQueue() (models.NotificationTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotificationTask{}, false
	}
}

func (w *NotificationWorker) tryRedis(ctx context.Context) (models.NotificationTask, bool) {
	if w.redis == nil {
		return models.NotificationTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return models.NotificationTask{}, false
		}
		w.logger.Warn().Err(err).Msg("redis BRPOP failed")
		return models.NotificationTask{}, false
	}
	if len(res) != 2 {
		return models.NotificationTask{}, false
	}
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.NotificationTask{}, false
	}
	return task, true
}

// processTask delivers a task handed over through memory or Redis. The
// handoff copy is stale by design, so the row is claimed first and the task is
// skipped when polling or another worker already took it.
func (w *NotificationWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	claimed, err := w.store.ClaimNotificationTask(ctx, task.ID, w.leaseDeadline())
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("claim notification task")
		return
	}
	if !claimed {
		w.logger.Debug().Int64("task_id", task.ID).Msg("notification task already claimed, skipping")
		return
	}
	w.deliver(ctx, task)
}

func (w *NotificationWorker) deliver(ctx context.Context, task *models.NotificationTask) {
	var payload events.BookingEventPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.notifier.Notify(ctx, task.EventType, payload); err != nil {
		metrics.IncNotification(task.EventType, "error")
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncNotification(task.EventType, "delivered")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notification completed")
	}
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", nextTime).Msg("notification failed, will retry")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notification retry")
	}
}

func (w *NotificationWorker) failTask(ctx context.Context, task *models.NotificationTask, cause error) {
	metrics.IncNotification(task.EventType, "failed")
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Msg("notification failed permanently")
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, models.TaskFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notification failed")
	}
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.deadLetterKey, task); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
		}
	}
}

func (w *NotificationWorker) pushRedis(ctx context.Context, key string, task *models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
