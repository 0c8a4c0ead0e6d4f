package events

import (
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.Refreshes == nil {
		t.Fatal("Refreshes channel is nil")
	}
}

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()
	ev := RefreshEvent{Players: 3, Events: 40}

	go func() {
		bus.Refreshes <- ev
	}()

	select {
	case received := <-bus.Refreshes:
		if received.Players != 3 || received.Events != 40 {
			t.Errorf("received %+v, want players 3 events 40", received)
		}
		if received.Failed() {
			t.Error("event without Err should not be Failed")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PublishDropsWhenFull(t *testing.T) {
	bus := NewBus()

	// Should be able to send up to 10 without blocking
	for i := 0; i < 10; i++ {
		if !bus.PublishRefresh(RefreshEvent{}) {
			t.Fatalf("publish %d dropped, want queued", i)
		}
	}
	if bus.PublishRefresh(RefreshEvent{Err: "late"}) {
		t.Error("publish on a full bus should report false")
	}

	// Drain
	for i := 0; i < 10; i++ {
		<-bus.Refreshes
	}
}
