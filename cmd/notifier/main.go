package main

// Relay worker: consumes notification events from SQS and delivers them to
// the portal webhook. Run alongside the API when NOTIFY_SQS_QUEUE_URL is set.

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"medocr-backend/internal/notify"
	"medocr-backend/internal/shared/config"
	"medocr-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds  = 60
	defaultConcurrency        = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.NotifyQueueURL)
	if queueURL == "" {
		log.Fatal("NOTIFY_SQS_QUEUE_URL is required")
	}

	relay, err := notify.NewRelay(os.Getenv("NOTIFY_WEBHOOK_URL"))
	if err != nil {
		log.Fatalf("relay: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("NOTIFY_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("NOTIFY_CONCURRENCY", defaultConcurrency)
	shutdownTimeout := time.Duration(envInt("NOTIFY_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.AWSRegion); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var client sqsAPI = sqs.NewFromConfig(awsCfg)

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("notifier started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, relay, client, queueURL, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight deliveries", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight deliveries")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage delivers one queued event. Undecodable messages are deleted;
// failed deliveries stay on the queue for redelivery.
func handleMessage(ctx context.Context, relay *notify.Relay, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		telemetry.Error("notifier.empty_body", map[string]any{
			"message_id": aws.ToString(msg.MessageId),
		})
		deleteMessage(ctx, client, queueURL, msg)
		return
	}

	ev, err := notify.DecodeEvent([]byte(body))
	if err != nil {
		telemetry.Error("notifier.decode_failed", map[string]any{
			"message_id": aws.ToString(msg.MessageId),
			"error":      err.Error(),
		})
		deleteMessage(ctx, client, queueURL, msg)
		return
	}

	if err := relay.Deliver(ctx, ev); err != nil {
		telemetry.Warn("notifier.deliver_failed", map[string]any{
			"message_id": aws.ToString(msg.MessageId),
			"session_id": ev.SessionID,
			"type":       ev.Type,
			"error":      err.Error(),
		})
		return
	}

	telemetry.Info("notifier.delivered", map[string]any{
		"message_id": aws.ToString(msg.MessageId),
		"session_id": ev.SessionID,
		"type":       ev.Type,
	})
	deleteMessage(ctx, client, queueURL, msg)
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) {
	_, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("delete message %s: %v", aws.ToString(msg.MessageId), err)
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
