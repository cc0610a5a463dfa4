package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

func TestTopic_PublishDeliversToAllSubscribers(t *testing.T) {
	topic := NewTopic()
	a := topic.Subscribe()
	b := topic.Subscribe()
	defer a.Close()
	defer b.Close()

	topic.Publish(satori.Event{ID: 1})

	select {
	case e := <-a.C():
		assert.Equal(t, int64(1), e.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber a did not receive event")
	}
	select {
	case e := <-b.C():
		assert.Equal(t, int64(1), e.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber b did not receive event")
	}
}

func TestTopic_OverflowDropsOldest(t *testing.T) {
	topic := &Topic{capacity: 2, subs: make(map[*Subscription]struct{})}
	sub := topic.Subscribe()
	defer sub.Close()

	topic.Publish(satori.Event{ID: 1})
	topic.Publish(satori.Event{ID: 2})
	topic.Publish(satori.Event{ID: 3}) // buffer full at {1,2}; drop 1, keep {2,3}

	first := <-sub.C()
	second := <-sub.C()
	require.Equal(t, int64(2), first.ID)
	require.Equal(t, int64(3), second.ID)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	topic := NewTopic()
	sub := topic.Subscribe()
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, topic.Subscribers())
}
