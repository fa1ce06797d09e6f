package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/huloud/huloud/pkg/queue"
)

// stubSubscriber 记录订阅的主题并交出通道，便于手工投递.
type stubSubscriber struct {
	chans map[string]chan *message.Message
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{chans: make(map[string]chan *message.Message)}
}

func (s *stubSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message, 1)
	s.chans[topic] = ch

	return ch, nil
}

func TestStartItemLoggerSubscribesAllTopics(t *testing.T) {
	sub := newStubSubscriber()

	if err := StartItemLogger(context.Background(), sub); err != nil {
		t.Fatalf("StartItemLogger failed: %v", err)
	}

	for _, topic := range itemTopics {
		if _, ok := sub.chans[topic]; !ok {
			t.Errorf("topic %s not subscribed", topic)
		}
	}
}

func TestItemLoggerConsumesAndAcks(t *testing.T) {
	sub := newStubSubscriber()

	if err := StartItemLogger(context.Background(), sub); err != nil {
		t.Fatalf("StartItemLogger failed: %v", err)
	}

	msg, err := queue.NewWatermillMessage(queue.TopicItemCreated, queue.ItemCreatedPayload{
		Item:   queue.ItemRef{ID: 7, UserID: 1, Name: "a.txt", Path: "/a.txt"},
		Source: "upload",
	})
	if err != nil {
		t.Fatalf("NewWatermillMessage failed: %v", err)
	}

	sub.chans[queue.TopicItemCreated] <- msg

	select {
	case <-msg.Acked():
	case <-time.After(2 * time.Second):
		t.Fatal("event not consumed")
	}
}

func TestItemLoggerAcksUndecodableMessage(t *testing.T) {
	sub := newStubSubscriber()

	if err := StartItemLogger(context.Background(), sub); err != nil {
		t.Fatalf("StartItemLogger failed: %v", err)
	}

	// 坏消息也要确认掉，日志消费者不能让死信堵住通道
	bad := message.NewMessage("bad-1", []byte("not json"))
	sub.chans[queue.TopicItemDeleted] <- bad

	select {
	case <-bad.Acked():
	case <-time.After(2 * time.Second):
		t.Fatal("undecodable event not acked")
	}
}
