package realtime_test

import (
	"context"
	"testing"
	"time"

	"ms-turnos/internal/models"
	"ms-turnos/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesEveryClient(t *testing.T) {
	e := realtime.NewEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, first := e.Subscribe(ctx)
	_, second := e.Subscribe(ctx)
	require.Equal(t, 2, e.ClientCount())

	assert.Equal(t, 2, e.BroadcastRefresh())

	for _, ch := range []<-chan realtime.Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, models.EventNewTicket, ev.Name)
		case <-time.After(time.Second):
			t.Fatal("client did not receive refresh")
		}
	}
}

func TestLateSubscriberMissesEarlierBroadcast(t *testing.T) {
	e := realtime.NewEmitter()
	assert.Equal(t, 0, e.BroadcastRefresh())

	_, ch := e.Subscribe(context.Background())
	select {
	case <-ch:
		t.Fatal("late subscriber should not see past broadcasts")
	default:
	}
}

func TestUnsubscribeOnContextDone(t *testing.T) {
	e := realtime.NewEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	_, ch := e.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription was not removed")
	}
	assert.Equal(t, 0, e.ClientCount())
}

func TestUnsubscribeTwice(t *testing.T) {
	e := realtime.NewEmitter()
	id, _ := e.Subscribe(context.Background())

	e.Unsubscribe(id)
	e.Unsubscribe(id)
	assert.Equal(t, 0, e.ClientCount())
}

func TestSlowClientDropsExtraSignals(t *testing.T) {
	e := realtime.NewEmitter()
	_, ch := e.Subscribe(context.Background())

	for i := 0; i < 50; i++ {
		e.BroadcastRefresh()
	}

	// The buffer holds some signals, the rest were dropped without blocking
	assert.Greater(t, len(ch), 0)
	assert.Less(t, len(ch), 50)
}
