package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// Subscription is one subscriber's view of a stream. Events arrives in
// version order for the stream. The channel is closed when the broker shuts
// down or the subscriber fell too far behind; Dropped then reports whether a
// reconnect must resync from the last acknowledged version.
type Subscription struct {
	ID     uuid.UUID
	Events <-chan *propagatorDomain.ChangeEvent

	broker  *Broker
	stream  string
	events  chan *propagatorDomain.ChangeEvent
	dropped bool
	gapped  bool
}

// Gapped reports whether the retained history could not prove continuity from
// the subscriber's last acknowledged version. The replay delivered is partial;
// the subscriber must refetch the full state before trusting it.
func (s *Subscription) Gapped() bool {
	return s.gapped
}

// Dropped reports whether the broker dropped this subscription for falling
// behind.
func (s *Subscription) Dropped() bool {
	s.broker.mu.RLock()
	defer s.broker.mu.RUnlock()
	return s.dropped
}

// stream holds the replay history and subscribers of one (kind, key) stream.
type stream struct {
	history     []*propagatorDomain.ChangeEvent
	subscribers map[uuid.UUID]*Subscription
}

// Broker fans change events out to subscribers with per-stream ordering and
// a bounded replay window. Publish never blocks: a full queue is reported to
// the caller instead of stalling the write path.
type Broker struct {
	queue            chan *propagatorDomain.ChangeEvent
	subscriberBuffer int
	replayWindow     int
	logger           *slog.Logger

	mu      sync.RWMutex
	streams map[string]*stream
	closed  bool
}

// NewBroker creates a broker with the given queue bound, per-subscriber
// buffer, and per-stream replay window.
func NewBroker(queueSize, subscriberBuffer, replayWindow int, logger *slog.Logger) *Broker {
	return &Broker{
		queue:            make(chan *propagatorDomain.ChangeEvent, queueSize),
		subscriberBuffer: subscriberBuffer,
		replayWindow:     replayWindow,
		logger:           logger,
		streams:          make(map[string]*stream),
	}
}

// Publish enqueues an event for fan-out. A full queue returns ErrQueueFull
// immediately; the caller retries later.
func (b *Broker) Publish(event *propagatorDomain.ChangeEvent) error {
	select {
	case b.queue <- event:
		return nil
	default:
		return propagatorDomain.ErrQueueFull
	}
}

// Run dispatches queued events until the context is canceled, then closes
// every subscription.
func (b *Broker) Run(ctx context.Context) error {
	b.logger.Info("starting change propagator broker")

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			b.logger.Info("change propagator broker stopped")
			return ctx.Err()
		case event := <-b.queue:
			b.dispatch(event)
		}
	}
}

// Subscribe registers a subscriber for one stream, replaying retained events
// with a version greater than sinceVersion before live delivery starts.
func (b *Broker) Subscribe(
	kind propagatorDomain.EntityKind,
	key string,
	sinceVersion uint64,
) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	streamID := string(kind) + "/" + key
	s := b.streams[streamID]
	if s == nil {
		s = &stream{subscribers: make(map[uuid.UUID]*Subscription)}
		b.streams[streamID] = s
	}

	var replay []*propagatorDomain.ChangeEvent
	for _, event := range s.history {
		if event.Version > sinceVersion {
			replay = append(replay, event)
		}
	}

	// A subscriber resuming from a version the window no longer covers gets a
	// partial replay: the oldest retained version must be sinceVersion+1 or
	// earlier, otherwise intermediate versions were already evicted (or the
	// history is empty after a restart) and the replay cannot be trusted.
	gapped := false
	if sinceVersion > 0 {
		if len(s.history) == 0 || s.history[0].Version > sinceVersion+1 {
			gapped = true
		}
	}

	events := make(chan *propagatorDomain.ChangeEvent, b.subscriberBuffer+len(replay))
	for _, event := range replay {
		events <- event
	}

	sub := &Subscription{
		ID:     uuid.Must(uuid.NewV7()),
		Events: events,
		broker: b,
		stream: streamID,
		events: events,
		gapped: gapped,
	}
	s.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber and releases its channel.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.streams[sub.stream]
	if s == nil {
		return
	}
	if _, ok := s.subscribers[sub.ID]; ok {
		delete(s.subscribers, sub.ID)
		close(sub.events)
	}
}

// dispatch appends an event to its stream's history and delivers it to every
// subscriber. A subscriber whose buffer is full is dropped rather than
// letting its backlog grow without bound.
func (b *Broker) dispatch(event *propagatorDomain.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	streamID := event.StreamID()
	s := b.streams[streamID]
	if s == nil {
		s = &stream{subscribers: make(map[uuid.UUID]*Subscription)}
		b.streams[streamID] = s
	}

	s.history = append(s.history, event)
	if len(s.history) > b.replayWindow {
		s.history = s.history[len(s.history)-b.replayWindow:]
	}

	for id, sub := range s.subscribers {
		select {
		case sub.events <- event:
		default:
			b.logger.Warn("dropping slow subscriber",
				slog.String("stream", streamID),
				slog.String("subscription_id", id.String()),
			)
			sub.dropped = true
			delete(s.subscribers, id)
			close(sub.events)
		}
	}
}

// shutdown closes every subscription.
func (b *Broker) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, s := range b.streams {
		for id, sub := range s.subscribers {
			delete(s.subscribers, id)
			close(sub.events)
		}
	}
}
