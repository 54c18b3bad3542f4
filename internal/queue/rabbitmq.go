package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultQueueName is the planning job queue
	DefaultQueueName = "schedule_planning_jobs"
	// DefaultDLQName is the dead letter queue for planning jobs
	DefaultDLQName = "schedule_planning_jobs_dlq"
	// DefaultResultQueueName receives assembled planning contexts
	DefaultResultQueueName = "schedule_plan_results"
	// DefaultExchangeName is the default exchange name
	DefaultExchangeName = "schedule_jobs"
	// DefaultDelayedExchangeName is the delayed exchange name (requires plugin)
	DefaultDelayedExchangeName = "schedule_jobs_delayed"

	jobsRoutingKey    = "jobs"
	dlqRoutingKey     = "dlq"
	resultsRoutingKey = "results"
)

// RabbitMQQueue implements JobQueue, ResultPublisher and DLQPurger using RabbitMQ
type RabbitMQQueue struct {
	conn                *amqp.Connection
	channel             *amqp.Channel
	mu                  sync.Mutex // guards channel for publish and get
	logger              *zap.Logger
	queueName           string
	dlqName             string
	resultQueueName     string
	exchangeName        string
	delayedExchangeName string
	delayedAvailable    bool
}

// NewRabbitMQQueue connects to RabbitMQ and declares the planning topology
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queue := &RabbitMQQueue{
		conn:                conn,
		channel:             ch,
		logger:              logger,
		queueName:           DefaultQueueName,
		dlqName:             DefaultDLQName,
		resultQueueName:     DefaultResultQueueName,
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
	}

	if err := queue.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return queue, nil
}

// setup configures exchanges and queues
func (q *RabbitMQQueue) setup() error {
	// Declare delayed exchange (requires rabbitmq_delayed_message_exchange plugin)
	err := q.channel.ExchangeDeclare(
		q.delayedExchangeName,
		"x-delayed-message",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	)
	if err != nil {
		// a failed declare closes the channel
		if q.channel.IsClosed() {
			newCh, openErr := q.conn.Channel()
			if openErr != nil {
				return fmt.Errorf("failed to reopen channel after delayed exchange error: %w", openErr)
			}
			q.channel = newCh
		}
		q.logger.Warn("delayed_exchange_unavailable", zap.Error(err))
	} else {
		q.delayedAvailable = true
	}

	err = q.channel.ExchangeDeclare(
		q.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := q.declareAndBind(q.dlqName, dlqRoutingKey, q.exchangeName, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	if err := q.declareAndBind(q.queueName, jobsRoutingKey, q.exchangeName, queueArgs); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if q.delayedAvailable {
		if err := q.channel.QueueBind(q.queueName, jobsRoutingKey, q.delayedExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to delayed exchange: %w", err)
		}
	}

	if err := q.declareAndBind(q.resultQueueName, resultsRoutingKey, q.exchangeName, nil); err != nil {
		return fmt.Errorf("failed to declare result queue: %w", err)
	}

	return nil
}

func (q *RabbitMQQueue) declareAndBind(name, routingKey, exchange string, args amqp.Table) error {
	_, err := q.channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return err
	}
	return q.channel.QueueBind(name, routingKey, exchange, false, nil)
}

// Enqueue adds a job to the queue
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	publishing, delayed, err := jobPublishing(job, time.Now())
	if err != nil {
		return err
	}

	exchangeName := q.exchangeName
	if delayed {
		if q.delayedAvailable {
			exchangeName = q.delayedExchangeName
		} else {
			// the consumer holds the job back until NotBefore
			delete(publishing.Headers, "x-delay")
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.channel.PublishWithContext(ctx, exchangeName, jobsRoutingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// PublishResult sends an assembled planning context to the result queue
func (q *RabbitMQQueue) PublishResult(ctx context.Context, result *Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		MessageId:     result.JobID.String(),
		CorrelationId: result.CorrelationID,
		Type:          string(result.Type),
		Timestamp:     result.CompletedAt,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.channel.PublishWithContext(ctx, q.exchangeName, resultsRoutingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

// jobPublishing builds the AMQP message for job. delayed is true when the job
// should wait for a future NotBefore.
func jobPublishing(job *Job, now time.Time) (amqp.Publishing, bool, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, false, fmt.Errorf("failed to marshal job: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		MessageId:     job.ID.String(),
		CorrelationId: job.CorrelationID,
		Type:          string(job.Type),
		Timestamp:     job.CreatedAt,
	}

	// Calculate TTL from NotAfter if set
	if job.NotAfter != nil {
		if ttl := job.NotAfter.Sub(now); ttl > 0 {
			publishing.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}

	delayed := false
	if job.NotBefore != nil {
		if delay := job.NotBefore.Sub(now); delay > 0 {
			delayed = true
			publishing.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
		}
	}

	return publishing, delayed, nil
}

// Consume returns a channel of messages from the queue using async delivery
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	// separate channel for consuming
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	if prefetchCount < 1 {
		prefetchCount = 1
	}
	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack (false = manual ack required)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() {
			_ = consumeCh.Close() // may already be closed
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					// connection lost
					errChan <- errors.New("delivery channel closed")
					return
				}

				job, err := decodeJob(delivery.Body)
				if err != nil {
					// poison message goes to the DLQ
					_ = delivery.Nack(false, false)
					select {
					case errChan <- err:
					default:
						q.logger.Warn("queue_error_dropped", zap.Error(err))
					}
					continue
				}

				if job.IsExpired(time.Now()) {
					q.logger.Info("planning_job_expired",
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
					)
					_ = delivery.Nack(false, false)
					continue
				}

				msg := &Message{
					Job:         job,
					DeliveryTag: delivery.DeliveryTag,
					Channel:     consumeCh,
				}

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

func decodeJob(body []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if !job.Type.IsKnown() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
	return &job, nil
}

// PurgeOlderThan drops dead-lettered jobs whose publish timestamp is older than
// retention. The DLQ is FIFO, so the scan stops at the first younger message.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info, err := q.channel.QueueDeclarePassive(q.dlqName, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	purged := 0
	for i := 0; i < info.Messages; i++ {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		delivery, ok, err := q.channel.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			break
		}
		if delivery.Timestamp.IsZero() || delivery.Timestamp.Before(cutoff) {
			if err := delivery.Ack(false); err != nil {
				return purged, fmt.Errorf("failed to ack DLQ message: %w", err)
			}
			purged++
			continue
		}
		if err := delivery.Nack(false, true); err != nil {
			return purged, fmt.Errorf("failed to requeue DLQ message: %w", err)
		}
		break
	}
	return purged, nil
}

// HealthCheck verifies the connection and publish channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	if q.channel == nil || q.channel.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

// Close closes the queue connection
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.channel != nil {
		err = q.channel.Close()
	}
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

var (
	_ JobQueue        = (*RabbitMQQueue)(nil)
	_ ResultPublisher = (*RabbitMQQueue)(nil)
	_ DLQPurger       = (*RabbitMQQueue)(nil)
)
