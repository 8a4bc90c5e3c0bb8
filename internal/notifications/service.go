package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"boutique/internal/shared/config"
	"boutique/pkg/logger"
)

// Notifier hands a notification to whatever delivers it. Callers treat a
// failure as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, notification *EmailNotification) error
	Close() error
}

type ServiceConfig struct {
	Broker        string
	KafkaBrokers  []string
	Topic         string
	GroupID       string
	Workers       int
	MaxRetries    int
	RabbitMQURL   string
	RabbitMQQueue string
	SMTP          SMTPConfig
}

func NewServiceConfig(cfg *config.Config) *ServiceConfig {
	return &ServiceConfig{
		Broker:        cfg.Notifications.Broker,
		KafkaBrokers:  cfg.Notifications.KafkaBrokers,
		Topic:         cfg.Notifications.KafkaTopic,
		GroupID:       cfg.Notifications.KafkaGroupID,
		Workers:       cfg.Notifications.Workers,
		MaxRetries:    cfg.Notifications.MaxRetries,
		RabbitMQURL:   cfg.Notifications.RabbitMQURL,
		RabbitMQQueue: cfg.Notifications.RabbitMQQueue,
		SMTP: SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
			BaseURL:   cfg.SMTP.BaseURL,
		},
	}
}

// Service owns the publishing side and, for brokers that have one, the
// consuming workers that turn messages into emails.
type Service struct {
	config   *ServiceConfig
	notifier Notifier
	consumer NotificationConsumer
	log      *logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

func NewService(cfg *ServiceConfig, log *logger.Logger) (*Service, error) {
	emailService := newEmailService(cfg.SMTP, log)

	svc := &Service{config: cfg, log: log}

	switch cfg.Broker {
	case config.BrokerKafka:
		producerConfig := DefaultKafkaProducerConfig()
		producerConfig.Brokers = cfg.KafkaBrokers
		producerConfig.NotificationTopic = cfg.Topic

		producer, err := NewKafkaNotificationProducer(producerConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification producer: %w", err)
		}

		consumerConfig := DefaultConsumerConfig()
		consumerConfig.Brokers = cfg.KafkaBrokers
		consumerConfig.Topics = []string{cfg.Topic}
		consumerConfig.GroupID = cfg.GroupID
		consumerConfig.MaxRetries = cfg.MaxRetries

		consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService, log)
		if err != nil {
			_ = producer.Close()
			return nil, fmt.Errorf("failed to create notification consumer: %w", err)
		}

		svc.notifier = producer
		svc.consumer = consumer

	case config.BrokerRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		svc.notifier = client
		svc.consumer = NewRabbitMQConsumer(client, emailService, cfg.MaxRetries, log)

	default:
		svc.notifier = NewLogNotifier(log)
	}

	return svc, nil
}

// Notifier returns the publishing side for injection into domain services.
func (s *Service) Notifier() Notifier {
	return s.notifier
}

// Start launches consumer workers; it does not block.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return errors.New("notification service is already running")
	}
	if s.consumer == nil {
		s.isRunning = true
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	workers := s.config.Workers
	if workers <= 0 {
		workers = 1
	}
	if err := s.consumer.StartConsumers(ctx, workers); err != nil {
		cancel()
		return fmt.Errorf("failed to start consumers: %w", err)
	}

	s.cancel = cancel
	s.isRunning = true
	s.log.Info("notification service started",
		slog.String("broker", s.config.Broker),
		slog.Int("workers", workers),
	)
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.notifier.Close(); err != nil {
		errs = append(errs, err)
	}
	s.isRunning = false
	return errors.Join(errs...)
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier records notifications in the log instead of sending them.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, notification *EmailNotification) error {
	n.log.InfoContext(ctx, "notification (not delivered, no broker configured)",
		slog.String("type", string(notification.Type)),
		slog.String("recipient_id", notification.RecipientID.String()),
		slog.String("subject", notification.Subject),
	)
	return nil
}

func (n *logNotifier) Close() error { return nil }
