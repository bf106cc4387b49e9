package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"go.uber.org/zap"
)

func newTestClient(addr string) *Client {
	return &Client{
		conn:   nil, // Not needed for hub tests
		addr:   addr,
		send:   make(chan Message, 256),
		logger: zap.NewNop(),
	}
}

func TestRegisterAndCount(t *testing.T) {
	hub := NewHub(zap.NewNop())
	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	c1 := newTestClient("127.0.0.1:50001")
	c2 := newTestClient("127.0.0.1:50002")
	hub.Register(c1)
	hub.Register(c2)

	if hub.ClientCount() != 2 {
		t.Errorf("ClientCount() = %d, want 2", hub.ClientCount())
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient("127.0.0.1:50001")

	hub.Register(c)
	hub.Unregister(c)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after unregister")
	}

	// Unregistering again must not close the channel twice.
	hub.Unregister(c)
}

func TestUnregisterUnknownClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient("127.0.0.1:50001")

	// Never registered; must not panic or close the channel.
	hub.Unregister(c)

	select {
	case _, ok := <-c.send:
		if !ok {
			t.Error("channel closed for client that was never registered")
		}
	default:
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	clients := []*Client{
		newTestClient("127.0.0.1:50001"),
		newTestClient("127.0.0.1:50002"),
		newTestClient("127.0.0.1:50003"),
	}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.Broadcast(Message{
		Type:      MessageIntakeLogged,
		Timestamp: time.Now(),
		Data: IntakeLoggedData{Event: hydration.IntakeEvent{
			ID:       "evt-1",
			AmountML: 250,
		}},
	})

	for i, c := range clients {
		select {
		case msg := <-c.send:
			if msg.Type != MessageIntakeLogged {
				t.Errorf("client %d received type %q, want %q", i, msg.Type, MessageIntakeLogged)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive the broadcast", i)
		}
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient("127.0.0.1:50001")
	hub.Register(c)

	for i := 0; i < cap(c.send); i++ {
		c.send <- Message{Type: MessageDayReset}
	}

	hub.Broadcast(Message{Type: MessageReminderDue, Timestamp: time.Now()})

	if len(c.send) != cap(c.send) {
		t.Errorf("buffer length = %d, want %d (overflow must be dropped)", len(c.send), cap(c.send))
	}
	if got := <-c.send; got.Type == MessageReminderDue {
		t.Error("dropped message was unexpectedly delivered")
	}
}

func TestConcurrentHubAccess(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := newTestClient("127.0.0.1:5000" + string(rune('0'+n%10)))
			hub.Register(c)
			go func() {
				for range c.send {
				}
			}()
			time.Sleep(5 * time.Millisecond)
			hub.Unregister(c)
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Message{Type: MessageIntakeLogged, Timestamp: time.Now()})
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after all clients left, want 0", hub.ClientCount())
	}
}
