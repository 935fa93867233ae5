package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// API is the part of the SQS client the consumer uses
type API interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer long polls an SQS queue fed by S3 bucket notifications
type Consumer struct {
	client  API
	config  config.SQSConfig
	workers int
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ port.EventConsumer = (*Consumer)(nil)

// NewClient creates an SQS client from the default AWS credential chain
func NewClient(ctx context.Context, cfg config.SQSConfig) (*sqs.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewConsumer returns a consumer handling up to workers messages at once
func NewConsumer(client API, cfg config.SQSConfig, workers int, logger *slog.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{client: client, config: cfg, workers: workers, logger: logger}
}

// Subscribe starts polling. A message is deleted when handler succeeds,
// otherwise it becomes visible again after the visibility timeout.
func (c *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	ctx, c.cancel = context.WithCancel(ctx)

	jobs := make(chan types.Message)
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for msg := range jobs {
				c.handle(ctx, handler, msg)
			}
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(jobs)
		c.logger.Info("SQS polling started", "queue", c.config.QueueURL, "workers", c.workers)
		c.poll(ctx, jobs)
		c.logger.Info("SQS polling stopped")
	}()
	return nil
}

func (c *Consumer) poll(ctx context.Context, jobs chan<- types.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.config.QueueURL),
			MaxNumberOfMessages: c.config.MaxMessages,
			WaitTimeSeconds:     int32(c.config.WaitTime / time.Second),
			VisibilityTimeout:   int32(c.config.VisibilityTimeout / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range out.Messages {
			select {
			case jobs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler port.MessageService, msg types.Message) {
	if msg.Body == nil {
		c.delete(ctx, msg)
		return
	}

	if err := handler.HandleMessage(ctx, unwrapBody([]byte(*msg.Body))); err != nil {
		c.logger.Warn("failed to handle message", "message_id", aws.ToString(msg.MessageId), "error", err)
		return
	}
	c.delete(ctx, msg)
}

func (c *Consumer) delete(ctx context.Context, msg types.Message) {
	// a handled message is deleted even while shutting down
	_, err := c.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.config.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete message", "message_id", aws.ToString(msg.MessageId), "error", err)
	}
}

// unwrapBody returns the S3 notification carried by an SNS envelope, or body itself
func unwrapBody(body []byte) []byte {
	var envelope struct {
		Type    string `json:"Type"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Type == "Notification" && envelope.Message != "" {
		return []byte(envelope.Message)
	}
	return body
}

// Close stops polling and waits for in flight messages
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}
