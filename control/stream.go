package control

import "context"

// DefaultStreamBuffer is the default bounded-channel capacity between a
// fetch stage and its parse/consumer stage, per the concurrency model's
// "bounded channels between fetch and parse stages" requirement.
const DefaultStreamBuffer = 256

// StanzaStream is a bounded, context-aware handoff queue carrying parsed
// stanzas from a producer (typically one goroutine per repository
// coordinate) to a consumer that folds them into a candidate.Universe.
// Grounded on database/etcddb/queue.go's writeQueue: a
// buffered channel sized by a configurable capacity, used purely as a
// backpressure mechanism rather than a work-stealing pool.
type StanzaStream struct {
	ch chan Stanza
}

// NewStanzaStream creates a stream with the given buffer capacity. A
// non-positive capacity falls back to DefaultStreamBuffer.
func NewStanzaStream(capacity int) *StanzaStream {
	if capacity <= 0 {
		capacity = DefaultStreamBuffer
	}
	return &StanzaStream{ch: make(chan Stanza, capacity)}
}

// Send enqueues stanza, blocking while the stream is full, and returning
// ctx.Err() if ctx is canceled first.
func (s *StanzaStream) Send(ctx context.Context, stanza Stanza) error {
	select {
	case s.ch <- stanza:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendAll enqueues every stanza in stanzas, in order.
func (s *StanzaStream) SendAll(ctx context.Context, stanzas []Stanza) error {
	for _, stanza := range stanzas {
		if err := s.Send(ctx, stanza); err != nil {
			return err
		}
	}
	return nil
}

// Close signals that no more stanzas will be sent. Callers must not call
// Send after Close.
func (s *StanzaStream) Close() {
	close(s.ch)
}

// C returns the receive-only channel consumers range over.
func (s *StanzaStream) C() <-chan Stanza {
	return s.ch
}
