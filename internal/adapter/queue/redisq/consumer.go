// Package redisq consumes resume-processing jobs from Redis lists.
//
// The worker blocks on a multi-queue BLPOP covering the resume and
// comparison queues, decodes and validates each message, and dispatches it
// to the processing pipeline. Jobs are processed strictly one at a time;
// concurrency comes from running more worker processes. Processing plus
// result delivery is retried with a linear backoff up to a fixed attempt
// ceiling. Malformed messages and exhausted jobs are never requeued: they
// are dropped, optionally into a dead letter list.
package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

var tracer = otel.Tracer("aices-ai-worker/redisq")

// Job type labels used in worker metrics.
const (
	jobTypeResume     = "resume"
	jobTypeComparison = "comparison"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// Processor is the job-processing surface the consumer drives. A resume job
// may fail and be retried; a comparison job always folds into a payload.
type Processor interface {
	ProcessResumeJob(ctx domain.Context, job domain.ResumeJob) (domain.ResultPayload, error)
	ProcessComparisonJob(ctx domain.Context, job domain.ComparisonJob) domain.ResultPayload
}

// Consumer owns the Redis connection and the dequeue-process-deliver loop.
type Consumer struct {
	rdb       *redis.Client
	processor Processor
	sender    domain.CallbackSender

	resumeQueue     string
	compareQueue    string
	deadLetterQueue string

	dequeueTimeout  time.Duration
	queueErrorPause time.Duration
	maxAttempts     int
	retryBaseDelay  time.Duration

	closeOnce sync.Once
}

// New connects to Redis and wires the consumer. The connection is verified
// lazily; readiness probing goes through Ping.
func New(cfg config.Config, processor Processor, sender domain.CallbackSender) *Consumer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Consumer{
		rdb:             rdb,
		processor:       processor,
		sender:          sender,
		resumeQueue:     cfg.ResumeQueue,
		compareQueue:    cfg.CompareQueue,
		deadLetterQueue: cfg.DeadLetterQueue,
		dequeueTimeout:  cfg.DequeueTimeout,
		queueErrorPause: cfg.QueueErrorPause,
		maxAttempts:     cfg.MaxAttempts,
		retryBaseDelay:  cfg.RetryBaseDelay,
	}
}

// Ping verifies the Redis connection.
func (c *Consumer) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection, unblocking any dequeue in flight.
// Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.rdb.Close() })
	return err
}

// Run blocks popping jobs until ctx is cancelled. Dequeue errors pause the
// loop briefly instead of crashing it; a worker with a flapping Redis keeps
// retrying forever.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("worker loop started",
		slog.String("resume_queue", c.resumeQueue),
		slog.String("compare_queue", c.compareQueue),
		slog.Int("max_attempts", c.maxAttempts))

	for {
		if ctx.Err() != nil {
			slog.Info("worker loop stopped")
			return nil
		}

		queue, raw, err := c.dequeue(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				slog.Info("worker loop stopped")
				return nil
			}
			slog.Error("dequeue failed, pausing",
				slog.Any("error", err), slog.Duration("pause", c.queueErrorPause))
			if !sleepCtx(ctx, c.queueErrorPause) {
				slog.Info("worker loop stopped")
				return nil
			}
			continue
		}

		if queue == c.compareQueue {
			c.handleComparison(ctx, raw)
		} else {
			c.handleResume(ctx, queue, raw)
		}
	}
}

// dequeue pops the next message from either queue. The resume queue is
// listed first, so when both hold messages resume jobs win.
func (c *Consumer) dequeue(ctx context.Context) (string, string, error) {
	res, err := c.rdb.BLPop(ctx, c.dequeueTimeout, c.resumeQueue, c.compareQueue).Result()
	if err != nil {
		return "", "", err
	}
	if len(res) != 2 {
		return "", "", fmt.Errorf("op=redisq.dequeue: unexpected blpop reply length %d", len(res))
	}
	return res[0], res[1], nil
}

func (c *Consumer) handleResume(ctx context.Context, queue, raw string) {
	var job domain.ResumeJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		c.drop(queue, raw, fmt.Errorf("op=redisq.handleResume decode: %w: %w", err, domain.ErrInvalidJob))
		return
	}
	job.Normalize()
	if err := getValidator().Struct(job); err != nil {
		c.drop(queue, raw, fmt.Errorf("op=redisq.handleResume validate: %s: %w", validationDetail(err), domain.ErrInvalidJob))
		return
	}

	ctx, span := tracer.Start(ctx, "redisq.process_resume", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("queue_job_id", job.QueueJobID.String()),
		attribute.String("mode", string(job.Mode)),
		attribute.Int64("resume_id", job.ResumeID),
	)

	ctx = observability.ContextWithJobID(ctx, job.QueueJobID.String())
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("queue_job_id", job.QueueJobID.String()),
		slog.String("mode", string(job.Mode)),
		slog.Int64("resume_id", job.ResumeID),
		slog.Int64("job_id", job.JobID),
	)
	if sc := span.SpanContext(); sc.IsValid() {
		lg = lg.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()))
	}
	ctx = observability.ContextWithLogger(ctx, lg)

	observability.StartProcessingJob(jobTypeResume)
	lg.Info("resume job received")
	start := time.Now()

	err := c.retry(ctx, jobTypeResume, func() error {
		payload, err := c.processor.ProcessResumeJob(ctx, job)
		if err != nil {
			return classify(err)
		}
		if err := c.sender.Send(ctx, payload); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		observability.FailJob(jobTypeResume)
		span.SetStatus(codes.Error, err.Error())
		lg.Error("resume job failed",
			slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		c.deadLetter(raw)
		return
	}

	observability.CompleteJob(jobTypeResume)
	span.SetStatus(codes.Ok, "completed")
	lg.Info("resume job completed", slog.Duration("elapsed", time.Since(start)))
}

func (c *Consumer) handleComparison(ctx context.Context, raw string) {
	var job domain.ComparisonJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		c.drop(c.compareQueue, raw, fmt.Errorf("op=redisq.handleComparison decode: %w: %w", err, domain.ErrInvalidJob))
		return
	}
	if err := getValidator().Struct(job); err != nil {
		c.drop(c.compareQueue, raw, fmt.Errorf("op=redisq.handleComparison validate: %s: %w", validationDetail(err), domain.ErrInvalidJob))
		return
	}

	ctx, span := tracer.Start(ctx, "redisq.process_comparison", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("queue_job_id", job.QueueJobID.String()),
		attribute.Int64("comparison_id", job.ComparisonID),
		attribute.Int("candidates", len(job.Candidates)),
	)

	ctx = observability.ContextWithJobID(ctx, job.QueueJobID.String())
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("queue_job_id", job.QueueJobID.String()),
		slog.Int64("comparison_id", job.ComparisonID),
	)
	if sc := span.SpanContext(); sc.IsValid() {
		lg = lg.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()))
	}
	ctx = observability.ContextWithLogger(ctx, lg)

	observability.StartProcessingJob(jobTypeComparison)
	lg.Info("comparison job received", slog.Int("candidates", len(job.Candidates)))
	start := time.Now()

	err := c.retry(ctx, jobTypeComparison, func() error {
		payload := c.processor.ProcessComparisonJob(ctx, job)
		if err := c.sender.Send(ctx, payload); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		observability.FailJob(jobTypeComparison)
		span.SetStatus(codes.Error, err.Error())
		lg.Error("comparison job failed",
			slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		c.deadLetter(raw)
		return
	}

	observability.CompleteJob(jobTypeComparison)
	span.SetStatus(codes.Ok, "completed")
	lg.Info("comparison job completed", slog.Duration("elapsed", time.Since(start)))
}

// retry drives op through the linear backoff policy. Permanent errors and
// context cancellation cut the budget short.
func (c *Consumer) retry(ctx context.Context, jobType string, op func() error) error {
	b := newLinearBackOff(c.retryBaseDelay, c.maxAttempts)
	notify := func(err error, delay time.Duration) {
		observability.RetryJob(jobType)
		observability.LoggerFromContext(ctx).Warn("job attempt failed, retrying",
			slog.Any("error", err), slog.Duration("delay", delay))
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

// classify wraps errors the retry loop must not re-attempt.
func classify(err error) error {
	if !domain.Retryable(err) {
		return backoff.Permanent(err)
	}
	return err
}

// drop discards a message that cannot become a job. No retry: the message
// would fail identically every time.
func (c *Consumer) drop(queue, raw string, err error) {
	slog.Error("dropping malformed message", slog.String("queue", queue), slog.Any("error", err))
	observability.DropMessage(queue)
	c.deadLetter(raw)
}

// deadLetter preserves the original message for inspection when a dead
// letter queue is configured. Detached from the loop context so shutdown
// cannot lose the message between failure and push.
func (c *Consumer) deadLetter(raw string) {
	if c.deadLetterQueue == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.RPush(ctx, c.deadLetterQueue, raw).Err(); err != nil {
		slog.Error("dead letter push failed",
			slog.String("queue", c.deadLetterQueue), slog.Any("error", err))
		return
	}
	slog.Info("message dead lettered", slog.String("queue", c.deadLetterQueue))
}

// validationDetail flattens validator errors to "field=tag" pairs for logs.
func validationDetail(err error) string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s=%s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, " ")
}

// sleepCtx sleeps for d unless ctx is cancelled first. Reports whether the
// full pause elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
