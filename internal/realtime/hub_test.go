package realtime

import (
	"encoding/json"
	"testing"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

func newTestClient() *client {
	return &client{
		id:     "test-client",
		topics: make(map[string]struct{}),
		send:   make(chan []byte, 64),
	}
}

func TestBroadcastReachesSubscribersOnly(t *testing.T) {
	hub := NewHub(logging.Default())
	sub := newTestClient()
	other := newTestClient()
	hub.register(sub, []string{"display"})
	hub.register(other, []string{"chat"})

	hub.Broadcast("display", map[string]string{"current": "3", "next": "4"})

	select {
	case frame := <-sub.send:
		var event Event
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if event.Topic != "display" {
			t.Errorf("topic = %s", event.Topic)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("non-subscriber received display frame")
	default:
	}
}

func TestLateSubscriberGetsCachedSnapshot(t *testing.T) {
	hub := NewHub(logging.Default())
	hub.Broadcast("display", map[string]string{"current": "7", "next": "--"})

	late := newTestClient()
	hub.register(late, []string{"display"})

	select {
	case frame := <-late.send:
		var event Event
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		var data map[string]string
		if err := json.Unmarshal(event.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if data["current"] != "7" {
			t.Errorf("replayed snapshot = %v", data)
		}
	default:
		t.Fatal("late subscriber got no replayed snapshot")
	}
}

func TestUnregisterDropsSubscriptions(t *testing.T) {
	hub := NewHub(logging.Default())
	c := newTestClient()
	hub.register(c, []string{"worklist", "chat"})

	if hub.SubscriberCount("worklist") != 1 {
		t.Fatalf("worklist subscribers = %d", hub.SubscriberCount("worklist"))
	}
	hub.unregister(c)
	if hub.SubscriberCount("worklist") != 0 || hub.SubscriberCount("chat") != 0 {
		t.Error("unregister left stale subscriptions")
	}
	// Channel must be closed so writePump exits.
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestDynamicSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub(logging.Default())
	c := newTestClient()
	hub.register(c, nil)

	hub.subscribe(c, []string{"doctor"})
	if hub.SubscriberCount("doctor") != 1 {
		t.Fatalf("doctor subscribers = %d", hub.SubscriberCount("doctor"))
	}

	hub.unsubscribe(c, []string{"doctor"})
	if hub.SubscriberCount("doctor") != 0 {
		t.Error("unsubscribe did not remove client")
	}

	hub.Broadcast("doctor", "payload")
	select {
	case <-c.send:
		t.Error("unsubscribed client received frame")
	default:
	}
}

func TestBroadcastSkipsFullClientBuffers(t *testing.T) {
	hub := NewHub(logging.Default())
	c := &client{id: "slow", topics: make(map[string]struct{}), send: make(chan []byte)}
	hub.register(c, []string{"display"})

	// Unbuffered channel with no reader; Broadcast must not block.
	done := make(chan struct{})
	go func() {
		hub.Broadcast("display", "payload")
		close(done)
	}()
	<-done
}
