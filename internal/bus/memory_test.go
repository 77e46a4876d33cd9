package bus

import (
	"testing"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

func TestInMemoryFansOutToAllSubscribers(t *testing.T) {
	b := NewInMemory(zap.NewNop())

	var firstCalled, secondCalled bool
	if err := b.Subscribe("topic", func(msg messages.Message) error {
		firstCalled = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := b.Subscribe("topic", func(msg messages.Message) error {
		secondCalled = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	msg := &messages.GridState{GridID: "g1", MaxPower: 10, CurrentPower: 5}
	if err := b.Publish("topic", msg); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if !firstCalled || !secondCalled {
		t.Fatal("expected Publish to fan out synchronously to every subscriber")
	}
}

func TestInMemoryIgnoresUnsubscribedTopics(t *testing.T) {
	b := NewInMemory(zap.NewNop())
	called := false
	if err := b.Subscribe("topic-a", func(msg messages.Message) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish("topic-b", &messages.GridState{GridID: "g1", MaxPower: 10}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if called {
		t.Fatal("expected no delivery to a handler subscribed on a different topic")
	}
}

func TestInMemoryHandlerErrorDoesNotStopDelivery(t *testing.T) {
	b := NewInMemory(zap.NewNop())
	secondCalled := false

	if err := b.Subscribe("topic", func(msg messages.Message) error {
		return errBoom
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := b.Subscribe("topic", func(msg messages.Message) error {
		secondCalled = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := b.Publish("topic", &messages.GridState{GridID: "g1", MaxPower: 10}); err != nil {
		t.Fatalf("Publish itself should never fail: %v", err)
	}
	if !secondCalled {
		t.Fatal("expected a failing handler not to prevent delivery to subsequent subscribers")
	}
}

func TestCloseClearsSubscriptions(t *testing.T) {
	b := NewInMemory(zap.NewNop())
	called := false
	_ = b.Subscribe("topic", func(msg messages.Message) error {
		called = true
		return nil
	})
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	_ = b.Publish("topic", &messages.GridState{GridID: "g1", MaxPower: 10})
	if called {
		t.Fatal("expected no handlers to remain subscribed after Close")
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
