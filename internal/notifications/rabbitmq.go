package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"boutique/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

func NewRabbitMQClient(url, queueName string) (*RabbitMQClient, error) {
	const op = "notifications.NewRabbitMQClient"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

// Notify publishes the notification as a persistent JSON message
func (r *RabbitMQClient) Notify(ctx context.Context, notification *EmailNotification) error {
	const op = "notifications.RabbitMQClient.Notify"

	notification.Status = NotificationStatusQueued
	publishing, err := buildPublishing(notification)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.channel.PublishWithContext(ctx, "", r.queue.Name, false, false, publishing); err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func buildPublishing(notification *EmailNotification) (amqp.Publishing, error) {
	body, err := notification.ToJSON()
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    notification.ID.String(),
		Type:         string(notification.Type),
		Timestamp:    time.Now(),
	}, nil
}

func (r *RabbitMQClient) Close() error {
	var firstErr error
	if err := r.channel.Close(); err != nil {
		firstErr = err
	}
	if err := r.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// RabbitMQConsumer reads the notification queue and sends the emails.
type RabbitMQConsumer struct {
	client   *RabbitMQClient
	delivery *deliverer
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewRabbitMQConsumer(client *RabbitMQClient, emailService EmailService, maxRetries int, log *logger.Logger) *RabbitMQConsumer {
	return &RabbitMQConsumer{
		client:   client,
		delivery: newDeliverer(emailService, maxRetries, time.Second, log),
		log:      log,
	}
}

func (c *RabbitMQConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	const op = "notifications.RabbitMQConsumer.StartConsumers"

	if err := c.client.channel.Qos(numWorkers, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := c.client.channel.ConsumeWithContext(ctx, c.client.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			for msg := range msgs {
				if err := c.delivery.process(ctx, msg.Body); err != nil {
					c.log.Error("notification processing failed", slog.Int("worker", workerID), logger.Err(err))
				}
				_ = msg.Ack(false)
			}
		}(i)
	}
	return nil
}

// Stop waits for the workers; the deliveries channel closes with the
// consume context or the connection.
func (c *RabbitMQConsumer) Stop() error {
	c.wg.Wait()
	return nil
}
