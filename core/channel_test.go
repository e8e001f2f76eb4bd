package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventChannel_FIFO(t *testing.T) {
	ch := NewEventChannel()
	for i := 0; i < 10; i++ {
		ch.Publish(NewSystemNoteEvent("s", fmt.Sprintf("note-%d", i)))
	}

	events := ch.Drain()
	require.Len(t, events, 10)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("note-%d", i), ev.Text)
	}
}

func TestEventChannel_DrainEmpties(t *testing.T) {
	ch := NewEventChannel()
	ch.Publish(NewSystemNoteEvent("s", "one"))

	require.Len(t, ch.Drain(), 1)
	assert.Nil(t, ch.Drain())
	assert.Equal(t, 0, ch.Len())
}

func TestEventChannel_ConcurrentPublishDropsNothing(t *testing.T) {
	ch := NewEventChannel()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				ch.Publish(NewSystemNoteEvent("s", fmt.Sprintf("%d-%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	assert.Len(t, ch.Drain(), producers*perProducer)
}

func TestConsume_StopsAfterFinished(t *testing.T) {
	ch := NewEventChannel()
	ch.Publish(NewSystemNoteEvent("s", "hello"))
	ch.Publish(NewFinishedEvent("s"))

	var seen []Event
	err := Consume(context.Background(), ch, time.Millisecond, func(ev Event) {
		seen = append(seen, ev)
	})

	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, EventFinished, seen[1].Kind)
}

func TestConsume_ContextCancel(t *testing.T) {
	ch := NewEventChannel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Consume(ctx, ch, time.Millisecond, func(Event) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFinishGuard_FiresOnce(t *testing.T) {
	var guard FinishGuard
	fired := 0
	for i := 0; i < 3; i++ {
		guard.Fire(func() { fired++ })
	}
	assert.Equal(t, 1, fired)
}
