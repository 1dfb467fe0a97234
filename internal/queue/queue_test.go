package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	job, err := json.Marshal(RecognizeJob{RecordID: "rec-1", ImageURL: "http://img/x.jpg"})
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	if err := q.Publish(ctx, Message{Type: TypeRecognize, Body: job}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != TypeRecognize {
			t.Errorf("type = %q", msg.Type)
		}
		var got RecognizeJob
		if err := json.Unmarshal(msg.Body, &got); err != nil {
			t.Fatalf("unmarshal job: %v", err)
		}
		if got.RecordID != "rec-1" {
			t.Errorf("record id = %q", got.RecordID)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemoryPublishRespectsCancel(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, Message{Type: TypeRecognize}); err == nil {
		t.Error("Publish on cancelled context succeeded")
	}
}
