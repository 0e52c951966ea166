package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	GraphQueue = "graph_queue"

	// MaxRetries is how often a failed message goes through the retry queue
	// before it is moved to the dead-letter queue.
	MaxRetries = 10

	retryTTL = int32(10000)
)

// Queues lists every work queue the worker consumes.
var Queues = []string{GraphQueue}

func connectionURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

// Init dials RabbitMQ, retrying while the broker is starting up.
func Init(ctx context.Context) *amqp091.Connection {
	tries := util.GetEnvInt("RABBITMQ_CONNECT_RETRIES", 5)

	conn, err := util.RetryWithBackoff(ctx, tries, time.Second, func(ctx context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(connectionURL())
		if err != nil {
			logger.Warn("[Queue][Init] RabbitMQ not reachable", "err", err)
		}
		return conn, err
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares every named queue together with its "_dlq" and
// "_retry" companions. Messages in the retry queue expire after ten seconds
// and are dead-lettered back to the main queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			retryArgs(name),
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

func retryArgs(queueName string) amqp091.Table {
	return amqp091.Table{
		"x-message-ttl":             retryTTL,
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queueName,
	}
}

func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

// Retries reads the x-retries header. The broker hands integers back in
// whatever width they were encoded with.
func Retries(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

// NextRoute decides where a failed message goes: the retry queue with an
// incremented x-retries header, or the dead-letter queue once MaxRetries is
// reached.
func NextRoute(queueName string, headers amqp091.Table) (string, amqp091.Table) {
	retries := Retries(headers)
	if retries >= MaxRetries {
		return queueName + "_dlq", headers
	}

	next := amqp091.Table{}
	for k, v := range headers {
		next[k] = v
	}
	next["x-retries"] = int32(retries + 1)
	return queueName + "_retry", next
}
