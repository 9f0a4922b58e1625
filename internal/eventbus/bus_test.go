package eventbus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callassist/orchestrator/internal/domain"
)

func testCall(id string) domain.Call {
	return domain.Call{ID: id, Status: domain.CallStatusRinging, StartedAt: time.Unix(1700000000, 0)}
}

func TestPublish_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	b := New()
	b.Subscribe(HandlerFunc(func(domain.CallEvent) error { return errors.New("always fails") }))

	var got []domain.EventType
	b.Subscribe(HandlerFunc(func(ev domain.CallEvent) error {
		got = append(got, ev.Type)
		return nil
	}))

	c := testCall("c1")
	b.Publish(domain.NewCallStartEvent(c))
	b.Publish(domain.NewCallAnswerEvent(c))
	b.Publish(domain.NewCallEndEvent(c))

	assert.Equal(t, []domain.EventType{
		domain.EventTypeCallStart, domain.EventTypeCallAnswer, domain.EventTypeCallEnd,
	}, got)
	assert.Equal(t, 2, b.Len())
}

func TestPublish_PanickingSubscriberIsIsolated(t *testing.T) {
	b := New()
	b.Subscribe(HandlerFunc(func(domain.CallEvent) error { panic("boom") }))

	count := 0
	b.Subscribe(HandlerFunc(func(domain.CallEvent) error {
		count++
		return nil
	}))

	b.Publish(domain.NewCallStartEvent(testCall("c1")))
	b.Publish(domain.NewCallEndEvent(testCall("c1")))
	assert.Equal(t, 2, count)
}

func TestPublish_SubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		b.Subscribe(HandlerFunc(func(domain.CallEvent) error {
			order = append(order, i)
			return nil
		}))
	}
	b.Publish(domain.NewCallStartEvent(testCall("c1")))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub := b.Subscribe(HandlerFunc(func(domain.CallEvent) error {
		count++
		return nil
	}))

	b.Publish(domain.NewCallStartEvent(testCall("c1")))
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Publish(domain.NewCallEndEvent(testCall("c1")))

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, b.Len())
	select {
	case <-sub.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	b := New()
	var self *Subscription
	calls := 0
	self = b.Subscribe(HandlerFunc(func(domain.CallEvent) error {
		calls++
		b.Unsubscribe(self)
		return nil
	}))

	b.Publish(domain.NewCallStartEvent(testCall("c1")))
	b.Publish(domain.NewCallEndEvent(testCall("c1")))
	assert.Equal(t, 1, calls)
}

func TestSubscribeChan_DropsWhenFull(t *testing.T) {
	b := New()
	ch, sub := b.SubscribeChan(1)

	b.Publish(domain.NewCallStartEvent(testCall("c1")))
	b.Publish(domain.NewCallEndEvent(testCall("c1")))

	ev := <-ch
	assert.Equal(t, domain.EventTypeCallStart, ev.Type)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}

	b.Publish(domain.NewCallEndEvent(testCall("c1")))
	ev = <-ch
	assert.Equal(t, domain.EventTypeCallEnd, ev.Type)

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.Len())
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(HandlerFunc(func(domain.CallEvent) error { return nil }))
			b.Unsubscribe(sub)
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(domain.NewCallStartEvent(testCall("c1")))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, b.Len())
}
