package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/observability"
)

const (
	interviewFeedBufferSize = 16
	// remembered remote envelope ids; far above the events one node sees in flight
	interviewFeedSeenSize = 512
)

// Interview event types.
const (
	InterviewEventAssigned  = "interview.assigned"
	InterviewEventStarted   = "interview.started"
	InterviewEventAnswered  = "interview.answered"
	InterviewEventCompleted = "interview.completed"
	InterviewEventCancelled = "interview.cancelled"
)

// InterviewFeed fans interview events out to the owning recruiter's live connections,
// across API nodes over NATS when connected, otherwise over Redis pub/sub.
type InterviewFeed interface {
	Publish(ctx context.Context, event dto.InterviewEvent)
	Subscribe(recruiterID string) (<-chan dto.InterviewEvent, func())
	Start(ctx context.Context)
}

type interviewFeed struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *interviewBroker
	nodeID       string
	seen         *seenEnvelopes
}

type interviewEnvelope struct {
	ID     string             `json:"id"`
	Source string             `json:"source"`
	Event  dto.InterviewEvent `json:"event"`
	SentAt time.Time          `json:"sent_at"`
}

type interviewBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.InterviewEvent]struct{}
}

type seenEnvelopes struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	next  int
}

// NewInterviewFeed constructs the feed. redisClient and natsConn may be nil; when
// both are set only NATS carries events between nodes.
func NewInterviewFeed(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) InterviewFeed {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":interviews"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".interviews"
	}
	if natsConn != nil && subject != "" {
		redisClient = nil
	}

	return &interviewFeed{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "interview_feed").Logger(),
		broker: &interviewBroker{
			subscribers: make(map[string]map[chan dto.InterviewEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		seen: &seenEnvelopes{
			ids:   make(map[string]struct{}, interviewFeedSeenSize),
			order: make([]string, interviewFeedSeenSize),
		},
	}
}

func (f *interviewFeed) Start(ctx context.Context) {
	switch {
	case f.nats != nil && f.natsSubject != "":
		f.logger.Info().Str("transport", "nats").Str("subject", f.natsSubject).Msg("interview feed started")
		f.consumeNATS(ctx)
	case f.redis != nil && f.redisChannel != "":
		f.logger.Info().Str("transport", "redis").Str("channel", f.redisChannel).Msg("interview feed started")
		go f.consumeRedis(ctx)
	}
}

func (f *interviewFeed) Publish(ctx context.Context, event dto.InterviewEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	f.broker.broadcast(event.RecruiterID, event)

	payload, err := json.Marshal(interviewEnvelope{
		ID:     uuid.NewString(),
		Source: f.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to encode interview event")
		return
	}

	switch {
	case f.nats != nil && f.natsSubject != "":
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			f.logger.Warn().Err(err).Msg("failed to publish interview event to nats")
		}
	case f.redis != nil && f.redisChannel != "":
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to publish interview event to redis")
		}
	}
}

func (f *interviewFeed) Subscribe(recruiterID string) (<-chan dto.InterviewEvent, func()) {
	channel := make(chan dto.InterviewEvent, interviewFeedBufferSize)

	f.broker.subscribe(recruiterID, channel)
	observability.FeedClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.broker.unsubscribe(recruiterID, channel)
			observability.FeedClients().Dec()
		})
	}

	return channel, cleanup
}

func (f *interviewFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			f.logger.Error().Err(err).Msg("interview redis subscription closed")
			return
		}
		f.handleEnvelope([]byte(msg.Payload))
	}
}

func (f *interviewFeed) consumeNATS(ctx context.Context) {
	// a plain subscription: every node must see every event to reach its own sockets
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEnvelope(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats interview subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain interview nats subscription")
		}
	}()
}

func (f *interviewFeed) handleEnvelope(payload []byte) {
	var envelope interviewEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid interview event payload")
		return
	}

	if envelope.Source == f.nodeID {
		return
	}
	if envelope.ID != "" && !f.seen.add(envelope.ID) {
		return
	}

	f.broker.broadcast(envelope.Event.RecruiterID, envelope.Event)
}

// add records id and reports whether it was new. The oldest id is forgotten
// once the ring is full.
func (s *seenEnvelopes) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[id]; dup {
		return false
	}
	if evicted := s.order[s.next]; evicted != "" {
		delete(s.ids, evicted)
	}
	s.order[s.next] = id
	s.next = (s.next + 1) % len(s.order)
	s.ids[id] = struct{}{}
	return true
}

func (b *interviewBroker) subscribe(recruiterID string, ch chan dto.InterviewEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[recruiterID]; !exists {
		b.subscribers[recruiterID] = make(map[chan dto.InterviewEvent]struct{})
	}
	b.subscribers[recruiterID][ch] = struct{}{}
}

func (b *interviewBroker) unsubscribe(recruiterID string, ch chan dto.InterviewEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[recruiterID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, recruiterID)
		}
	}
}

func (b *interviewBroker) broadcast(recruiterID string, event dto.InterviewEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[recruiterID] {
		select {
		case ch <- event:
		default:
		}
	}
}
