package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workticket-service/internal/worker"
)

func TestInMemoryDispatcher_PublishReachesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var got []string
	d.Subscribe(EventTicketApproved, func(ctx context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return errors.New("ignored")
	})
	d.Subscribe(EventTicketApproved, func(ctx context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketRejected, func(ctx context.Context, e Event) error {
		got = append(got, "wrong")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketApproved, TicketID: "t1"}))
	require.Equal(t, []string{"first:t1", "second:t1"}, got)
}

func TestAsyncDispatcher_RunsOnPool(t *testing.T) {
	pool, err := worker.NewPool("events", 2, nil)
	require.NoError(t, err)
	defer pool.Shutdown(time.Second)

	d := NewAsyncDispatcher(pool, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	var seen Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		defer wg.Done()
		seen = e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, Event{Type: EventTicketCreated, TicketID: "t9"}))
	cancel()
	wg.Wait()
	require.Equal(t, "t9", seen.TicketID)
}
