package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"medocr-backend/internal/notify"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func testRelay(t *testing.T, status int) (*notify.Relay, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	relay, err := notify.NewRelay(srv.URL)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	return relay, &hits
}

func TestHandleMessageDeletesOnDelivery(t *testing.T) {
	client := &fakeSQS{}
	relay, hits := testRelay(t, http.StatusOK)

	body, _ := notify.EncodeEvent(notify.Completed("sess-1", "ocr/a.pdf", 100))
	msg := sqstypes.Message{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(string(body)),
	}

	handleMessage(context.Background(), relay, client, "queue", msg)

	if *hits != 1 {
		t.Fatalf("expected 1 webhook delivery, got %d", *hits)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "r1" {
		t.Fatalf("expected delete, got %v", client.deleted)
	}
}

func TestHandleMessageKeepsOnDeliveryFailure(t *testing.T) {
	client := &fakeSQS{}
	relay, _ := testRelay(t, http.StatusBadGateway)

	body, _ := notify.EncodeEvent(notify.Failed("sess-1", "a.pdf", "boom"))
	msg := sqstypes.Message{
		MessageId:     aws.String("m2"),
		ReceiptHandle: aws.String("r2"),
		Body:          aws.String(string(body)),
	}

	handleMessage(context.Background(), relay, client, "queue", msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected message kept, got deletes %v", client.deleted)
	}
}

func TestHandleMessageDeletesUndecodable(t *testing.T) {
	client := &fakeSQS{}
	relay, hits := testRelay(t, http.StatusOK)

	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("not json"),
	}

	handleMessage(context.Background(), relay, client, "queue", msg)

	if *hits != 0 {
		t.Fatalf("expected no delivery, got %d", *hits)
	}
	if len(client.deleted) != 1 {
		t.Fatalf("expected delete of bad message, got %v", client.deleted)
	}
}
