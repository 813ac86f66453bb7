package control

import (
	"context"
	"testing"
	"time"
)

func TestStanzaStreamSendAllThenDrain(t *testing.T) {
	s := NewStanzaStream(2)
	ctx := context.Background()

	go func() {
		_ = s.SendAll(ctx, []Stanza{
			{"Package": "a"},
			{"Package": "b"},
			{"Package": "c"},
		})
		s.Close()
	}()

	var names []string
	for stanza := range s.C() {
		names = append(names, stanza["Package"])
	}

	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("expected [a b c] in order, got %v", names)
	}
}

func TestStanzaStreamSendRespectsCancellation(t *testing.T) {
	s := NewStanzaStream(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Send(ctx, Stanza{"Package": "fills-the-buffer"}); err != nil {
		t.Fatalf("first send should not block: %v", err)
	}

	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Send(ctx, Stanza{"Package": "blocked"}) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Send did not return after context cancellation")
	}
}
