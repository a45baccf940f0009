package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// channel is the part of *amqp.Channel the service uses
type channel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Service publishes crop jobs and consumes them on RabbitMQ
type Service struct {
	conn         *amqp.Connection
	channel      channel
	logger       *zap.Logger
	queueName    string
	resultsQueue string
	handler      *Handler
	workers      sync.WaitGroup
}

// NewService connects to RabbitMQ and declares the job and result queues
func NewService(rabbitmqURL, queueName, resultsQueue string, handler *Handler, logger *zap.Logger) (*Service, error) {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if resultsQueue == "" {
		resultsQueue = DefaultResultsQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, name := range []string{queueName, resultsQueue} {
		_, err = ch.QueueDeclare(
			name,  // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &Service{
		conn:         conn,
		channel:      ch,
		logger:       logger,
		queueName:    queueName,
		resultsQueue: resultsQueue,
		handler:      handler,
	}, nil
}

// Wait blocks until every worker started by StartWorker has returned.
// Workers return once their context is done and the message in hand is settled.
func (s *Service) Wait() {
	s.workers.Wait()
}

// Close closes the queue connection. Call Wait first when workers are running.
func (s *Service) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// PublishJob enqueues a crop job, assigning an ID when missing
func (s *Service) PublishJob(ctx context.Context, job *CropJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := s.publish(s.queueName, job); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	s.logger.Info("Job published to queue", zap.String("job_id", job.ID))
	return nil
}

// StartWorker consumes jobs until ctx is done or the channel closes. A job
// already in progress when ctx is done still runs to completion and is acked.
func (s *Service) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := s.channel.Consume(
		s.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	s.logger.Info("Worker started", zap.Int("worker_id", workerID))

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					s.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				s.processMessage(context.WithoutCancel(ctx), msg, workerID)
			}
		}
	}()

	return nil
}

func (s *Service) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	result, err := s.handler.Handle(ctx, msg.Body)
	if err != nil {
		s.logger.Error("Failed to decode job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	if err := s.publish(s.resultsQueue, result); err != nil {
		s.logger.Error("Failed to publish job result",
			zap.String("job_id", result.JobID),
			zap.Error(err))
	}

	if err := msg.Ack(false); err != nil {
		s.logger.Error("Failed to ack message",
			zap.String("job_id", result.JobID),
			zap.Error(err))
	}
}

func (s *Service) publish(queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.channel.Publish(
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
