package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talentflow-api/internal/dto"
)

func TestInterviewFeedDeliversToOwningRecruiter(t *testing.T) {
	feed := NewInterviewFeed(nil, nil, "", testLogger())

	mine, cleanupMine := feed.Subscribe("recruiter-1")
	defer cleanupMine()
	other, cleanupOther := feed.Subscribe("recruiter-2")
	defer cleanupOther()

	feed.Publish(context.Background(), dto.InterviewEvent{Type: InterviewEventStarted, InterviewID: "i-1", RecruiterID: "recruiter-1"})

	select {
	case event := <-mine:
		require.Equal(t, InterviewEventStarted, event.Type)
		require.False(t, event.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event for owning recruiter")
	}

	select {
	case event := <-other:
		t.Fatalf("unexpected event for other recruiter: %+v", event)
	default:
	}
}

func TestInterviewFeedCleanupClosesChannel(t *testing.T) {
	feed := NewInterviewFeed(nil, nil, "", testLogger())

	ch, cleanup := feed.Subscribe("recruiter-1")
	cleanup()
	cleanup()

	_, open := <-ch
	require.False(t, open)
}

func TestInterviewFeedFansOutAcrossNodesViaRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	newClient := func() *redis.Client {
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewInterviewFeed(newClient(), nil, "talentflow", testLogger())
	receiver := NewInterviewFeed(newClient(), nil, "talentflow", testLogger())
	receiver.Start(ctx)

	events, cleanup := receiver.Subscribe("recruiter-1")
	defer cleanup()

	var got dto.InterviewEvent
	require.Eventually(t, func() bool {
		publisher.Publish(ctx, dto.InterviewEvent{Type: InterviewEventCompleted, InterviewID: "i-1", RecruiterID: "recruiter-1"})
		select {
		case got = <-events:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	require.Equal(t, InterviewEventCompleted, got.Type)
	require.Equal(t, "i-1", got.InterviewID)
}

func TestInterviewFeedIgnoresOwnEcho(t *testing.T) {
	feed := NewInterviewFeed(nil, nil, "", testLogger()).(*interviewFeed)

	events, cleanup := feed.Subscribe("recruiter-1")
	defer cleanup()

	feed.handleEnvelope([]byte(`{"source":"` + feed.nodeID + `","event":{"type":"interview.started","recruiter_id":"recruiter-1"}}`))
	select {
	case event := <-events:
		t.Fatalf("own event delivered twice: %+v", event)
	default:
	}

	feed.handleEnvelope([]byte(`{"source":"another-node","event":{"type":"interview.started","recruiter_id":"recruiter-1"}}`))
	select {
	case event := <-events:
		require.Equal(t, InterviewEventStarted, event.Type)
	default:
		t.Fatal("expected event from another node")
	}
}

func TestInterviewFeedDeliversRemoteEventOnce(t *testing.T) {
	mini := miniredis.RunT(t)

	newClient := func() *redis.Client {
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewInterviewFeed(newClient(), nil, "talentflow", testLogger())
	receiver := NewInterviewFeed(newClient(), nil, "talentflow", testLogger())
	receiver.Start(ctx)

	events, cleanup := receiver.Subscribe("recruiter-1")
	defer cleanup()

	require.Eventually(t, func() bool {
		return mini.PubSubNumSub("talentflow:interviews")["talentflow:interviews"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	publisher.Publish(ctx, dto.InterviewEvent{Type: InterviewEventAnswered, InterviewID: "i-7", RecruiterID: "recruiter-1"})

	select {
	case event := <-events:
		require.Equal(t, "i-7", event.InterviewID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the remote event")
	}

	select {
	case event := <-events:
		t.Fatalf("event delivered twice: %+v", event)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestInterviewFeedUsesSingleTransport(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	both := NewInterviewFeed(client, &nats.Conn{}, "talentflow", testLogger()).(*interviewFeed)
	require.Nil(t, both.redis)
	require.NotNil(t, both.nats)
	require.Equal(t, "talentflow.interviews", both.natsSubject)

	redisOnly := NewInterviewFeed(client, nil, "talentflow", testLogger()).(*interviewFeed)
	require.NotNil(t, redisOnly.redis)
	require.Equal(t, "talentflow:interviews", redisOnly.redisChannel)
}

func TestInterviewFeedDropsRepeatedEnvelope(t *testing.T) {
	feed := NewInterviewFeed(nil, nil, "", testLogger()).(*interviewFeed)

	events, cleanup := feed.Subscribe("recruiter-1")
	defer cleanup()

	payload := []byte(`{"id":"env-1","source":"another-node","event":{"type":"interview.completed","recruiter_id":"recruiter-1"}}`)
	feed.handleEnvelope(payload)
	feed.handleEnvelope(payload)

	require.Len(t, events, 1)
	event := <-events
	require.Equal(t, InterviewEventCompleted, event.Type)

	feed.handleEnvelope([]byte(`{"id":"env-2","source":"another-node","event":{"type":"interview.cancelled","recruiter_id":"recruiter-1"}}`))
	require.Len(t, events, 1)
}

func TestSeenEnvelopesForgetsOldest(t *testing.T) {
	seen := &seenEnvelopes{ids: map[string]struct{}{}, order: make([]string, 2)}

	require.True(t, seen.add("a"))
	require.False(t, seen.add("a"))
	require.True(t, seen.add("b"))
	require.True(t, seen.add("c"))
	// "a" was evicted by "c"
	require.True(t, seen.add("a"))
	require.False(t, seen.add("c"))
}
