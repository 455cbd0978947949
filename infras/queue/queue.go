package queue

//go:generate go run go.uber.org/mock/mockgen -source=./queue.go -destination=./mocks/queue_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/infras/redis"
	"cleanbook/shared/constant"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	otelAttrTaskType = "queue.task_type"
)

type Queue interface {
	Enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error
	Close() error
}

type queueImpl struct {
	client *asynq.Client
	cfg    *config.Config
	otel   otel.Otel
}

// RedisOpt points asynq at the cache Redis instance on its own database.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	timeout := redis.Timeout(cfg)

	return asynq.RedisClientOpt{
		Addr:         redis.Addr(cfg),
		Password:     cfg.Cache.Redis.Primary.Password,
		DB:           cfg.Queue.RedisDB,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

func New(cfg *config.Config, otl otel.Otel) Queue {
	log.Info().Int("db", cfg.Queue.RedisDB).Msg("Task queue client initialized")

	return &queueImpl{
		client: asynq.NewClient(RedisOpt(cfg)),
		cfg:    cfg,
		otel:   otl,
	}
}

func (q *queueImpl) Enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (err error) {
	ctx, scope := q.otel.NewScope(ctx, constant.OtelQueueScopeName, constant.OtelQueueScopeName+".Enqueue")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelAttrTaskType, taskType)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	opts = append([]asynq.Option{asynq.MaxRetry(q.cfg.Queue.MaxRetry), asynq.Queue(QueueDefault)}, opts...)

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, body), opts...)
	if err != nil {
		log.Error().Err(err).Str("task_type", taskType).Msg("failed to enqueue task")

		return fmt.Errorf("failed to enqueue task %s: %w", taskType, err)
	}

	log.Info().Str("task_type", taskType).Str("task_id", info.ID).Str("queue", info.Queue).Msg("task enqueued")

	return nil
}

func (q *queueImpl) Close() error {
	return q.client.Close()
}

// NewServer builds the asynq worker server used by cmd/worker.
func NewServer(cfg *config.Config) *asynq.Server {
	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("task_type", task.Type()).Msg("task processing failed")
		}),
	})
}

// DecodePayload unmarshals the JSON payload of task into T.
func DecodePayload[T any](task *asynq.Task) (T, error) {
	var payload T

	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %w", task.Type(), err)
	}

	return payload, nil
}
