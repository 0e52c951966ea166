package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/internal/queue"
	"github.com/OFFIS-RIT/factgraph/internal/storage"
	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/ai"
	"github.com/OFFIS-RIT/factgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

func main() {
	util.LoadEnv()
	bootstrap.InitLogger("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	claimStore, err := bootstrap.NewClaimStorage(ctx)
	if err != nil {
		logger.Fatal("Unable to open claim store", "err", err)
	}
	defer claimStore.Close()

	graphClient, err := bootstrap.NewGraphClient(ctx)
	if err != nil {
		logger.Fatal("Unable to create graph client", "err", err)
	}
	defer graphClient.Store().Close(context.Background())

	aiClient, err := bootstrap.NewAIClient()
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}
	summarizer, err := bootstrap.NewSummarizer(aiClient)
	if err != nil {
		logger.Fatal("Could not create summarizer", "err", err)
	}

	objects, err := storage.NewObjectStoreFromEnv(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	deps := queue.GraphJobDeps{
		Store:      claimStore,
		Graph:      graphClient,
		Summarizer: summarizer,
		Objects:    objects,
		Lock:       leaselock.New(claimStore.DB()),
		AssetPath:  util.GetEnvString("ASSET_PATH", "assets"),
		CharCutoff: util.GetEnvInt("AI_CHAR_CUTOFF", 0),
		WorkerID:   workerID(),
	}

	// Init rabbitmq
	conn := queue.Init(ctx)
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	// The graph store is shared, so jobs run one at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)
	g, gctx := errgroup.WithContext(ctx)

	for _, queueName := range queue.Queues {
		msgs, err := consumerCh.Consume(
			queueName,
			fmt.Sprintf("%s_consumer", queueName),
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("Failed to start consuming", "queue", queueName, "err", err)
		}

		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					logger.Info("Stopping consumer", "queue", queueName)
					return nil
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", queueName)
						return fmt.Errorf("delivery channel of %s closed", queueName)
					}
					select {
					case messageChan <- queuedMessage{msg: msg, queueName: queueName}:
					case <-gctx.Done():
						return nil
					}
				}
			}
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				logger.Info("Stopping message processor")
				return nil
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.GraphQueue:
					processingErr = queue.ProcessGraphMessage(gctx, deps, qm.msg.Body)
				default:
					processingErr = fmt.Errorf("no handler for queue %s", qm.queueName)
				}

				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(ch, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				logMetrics(aiClient)
				logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
				logger.Info("Waiting for next message")
			}
		}
	})

	logger.Info("Listening for messages", "queues", queue.Queues)
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}

func logMetrics(client ai.ChatAIClient) {
	if client == nil {
		return
	}
	metrics := client.GetMetrics()
	logger.Info(
		"AI Metrics",
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
		"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
	)
	client.ResetMetrics()
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	target, headers := queue.NextRoute(queueName, msg.Headers)
	logger.Info("Rerouting failed message", "target", target, "retries", queue.Retries(headers))

	pubErr := ch.Publish(
		"",
		target,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to reroute message", "target", target, "err", pubErr)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("Failed to nack message", "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message", "err", err)
	}
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
