package pubsub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic("test", TopicConfig{BufferSize: 3, ReplayAll: true})

	for i := 1; i <= 5; i++ {
		if err := pub.Publish("test", "event", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// last 3 of 5
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", want)
		}
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	ConfigureDefaultTopics(pub)

	for i := 1; i <= 3; i++ {
		if err := pub.Publish(TopicGraphChanged, "node_patched", GraphChanged{Reason: "patch", NodeID: "n"}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicGraphChanged)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		var payload GraphChanged
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			t.Fatalf("Bad payload: %v", err)
		}
		if payload.NodeID != "n" {
			t.Errorf("Expected node n, got %q", payload.NodeID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	for i := 1; i <= 3; i++ {
		if err := pub.Publish("test", "event", i); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish("test", "event", 4); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := pub.Subscribe(ctx, TopicActionExecuted); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if n := pub.Subscribers(TopicActionExecuted); n != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", n)
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for pub.Subscribers(TopicActionExecuted) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscription not removed after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()

	sub, err := pub.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected events channel to be closed")
	}
	if err := pub.Publish("test", "event", 1); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), "test"); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Close after publisher shutdown: %v", err)
	}
}

func TestStream(t *testing.T) {
	pub := NewSSEPublisher()
	ConfigureDefaultTopics(pub)
	if err := pub.Publish(TopicActionExecuted, "succeeded", ActionExecuted{NodeID: "n", ActionID: "add-task", Success: true}); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/subscribe/action_executed", nil)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		Stream(rec, req, pub, TopicActionExecuted)
		close(done)
	}()

	// closing the publisher ends the stream after the replayed event is written
	time.Sleep(50 * time.Millisecond)
	pub.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stream did not return after publisher close")
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, ": connected\n\n") {
		t.Errorf("Missing connect comment: %q", body)
	}
	if !strings.Contains(body, "id: 1\ndata: ") || !strings.Contains(body, `"actionId":"add-task"`) {
		t.Errorf("Missing event frame: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}
