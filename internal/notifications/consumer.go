package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"boutique/pkg/logger"

	"github.com/IBM/sarama"
)

type NotificationConsumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
}

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeoutMs     int
	HeartbeatMs          int
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "boutique-notification-workers",
		Topics:               []string{"boutique-notifications"},
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		MaxProcessingTime:    time.Minute,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

type KafkaNotificationConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	delivery      *deliverer
	log           *logger.Logger
	wg            sync.WaitGroup
}

func NewKafkaNotificationConsumer(config *ConsumerConfig, emailService EmailService, log *logger.Logger) (*KafkaNotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaNotificationConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		delivery:      newDeliverer(emailService, config.MaxRetries, config.RetryBackoffDuration, log),
		log:           log,
	}, nil
}

func (knc *KafkaNotificationConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	go knc.handleErrors()

	for i := 0; i < numWorkers; i++ {
		knc.wg.Add(1)
		go func(workerID int) {
			defer knc.wg.Done()
			knc.runWorker(ctx, workerID)
		}(i)
	}

	knc.log.Info("notification consumers started",
		slog.Int("workers", numWorkers),
		slog.Any("topics", knc.config.Topics),
	)
	return nil
}

func (knc *KafkaNotificationConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &ConsumerGroupHandler{
		workerID: workerID,
		delivery: knc.delivery,
		log:      knc.log,
	}

	for {
		// Consume returns on every rebalance; loop until cancelled
		if err := knc.consumerGroup.Consume(ctx, knc.config.Topics, handler); err != nil {
			knc.log.Warn("error consuming notifications", slog.Int("worker", workerID), logger.Err(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (knc *KafkaNotificationConsumer) handleErrors() {
	for err := range knc.consumerGroup.Errors() {
		knc.log.Warn("consumer group error", logger.Err(err))
	}
}

func (knc *KafkaNotificationConsumer) Stop() error {
	err := knc.consumerGroup.Close()
	knc.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type ConsumerGroupHandler struct {
	workerID int
	delivery *deliverer
	log      *logger.Logger
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Debug("consumer group session started", slog.Int("worker", h.workerID))
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Debug("consumer group session ended", slog.Int("worker", h.workerID))
	return nil
}

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if err := h.delivery.process(session.Context(), message.Value); err != nil {
				h.log.Error("notification processing failed",
					slog.Int("worker", h.workerID),
					slog.String("topic", message.Topic),
					slog.Int64("offset", message.Offset),
					logger.Err(err),
				)
			}
			// failed messages are not redelivered; the error above is the record
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// deliverer decodes a queued notification and sends it with retries. Both
// the Kafka and RabbitMQ consumers share it.
type deliverer struct {
	emailService EmailService
	maxRetries   int
	backoff      time.Duration
	log          *logger.Logger
}

func newDeliverer(emailService EmailService, maxRetries int, backoff time.Duration, log *logger.Logger) *deliverer {
	return &deliverer{
		emailService: emailService,
		maxRetries:   maxRetries,
		backoff:      backoff,
		log:          log,
	}
}

func (d *deliverer) process(ctx context.Context, payload []byte) error {
	var notification EmailNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired() {
		d.log.Debug("notification expired, skipping", slog.String("id", notification.ID.String()))
		return nil
	}
	if notification.RecipientEmail == "" {
		return nil
	}

	notification.Status = NotificationStatusSending

	if err := d.executeWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	d.log.Info("notification email sent",
		slog.String("id", notification.ID.String()),
		slog.String("type", string(notification.Type)),
	)
	return nil
}

func (d *deliverer) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	var err error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		err = d.emailService.SendNotification(ctx, notification)
		if err == nil {
			return nil
		}
		notification.RetryCount = attempt

		if attempt == d.maxRetries {
			break
		}

		// exponential backoff
		delay := d.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", d.maxRetries+1, err)
}
