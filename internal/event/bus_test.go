package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

func TestPublish_DeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got atomic.Int32
	bus.Subscribe("tracker.intake_logged", func(_ context.Context, e plugin.Event) {
		if e.Topic != "tracker.intake_logged" {
			t.Errorf("topic = %q, want tracker.intake_logged", e.Topic)
		}
		got.Add(1)
	})
	bus.Subscribe("other.topic", func(_ context.Context, _ plugin.Event) {
		t.Error("handler for unrelated topic should not fire")
	})

	err := bus.Publish(context.Background(), plugin.Event{Topic: "tracker.intake_logged", Source: "tracker"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.Load() != 1 {
		t.Errorf("handler fired %d times, want 1", got.Load())
	}
}

func TestSubscribeAll_SeesEveryTopic(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got atomic.Int32
	bus.SubscribeAll(func(_ context.Context, _ plugin.Event) { got.Add(1) })

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "a"})
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "b"})

	if got.Load() != 2 {
		t.Errorf("wildcard handler fired %d times, want 2", got.Load())
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got atomic.Int32
	unsub := bus.Subscribe("reminder.due", func(_ context.Context, _ plugin.Event) { got.Add(1) })

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "reminder.due"})
	unsub()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "reminder.due"})

	if got.Load() != 1 {
		t.Errorf("handler fired %d times after unsubscribe, want 1", got.Load())
	}
}

func TestPublish_RecoverPanickingHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { panic("handler bug") })

	var got atomic.Int32
	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { got.Add(1) })

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "boom"})
	if got.Load() != 1 {
		t.Error("panic in one handler should not prevent delivery to others")
	}
}

func TestPublishAsync_EventuallyDelivers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	done := make(chan struct{})
	bus.Subscribe("async", func(_ context.Context, _ plugin.Event) { close(done) })

	bus.PublishAsync(context.Background(), plugin.Event{Topic: "async"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async event not delivered")
	}
}
