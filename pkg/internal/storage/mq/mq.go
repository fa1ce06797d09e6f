// Package mq 提供基于 Watermill 库的进程内事件总线。
// 采用 GoChannel Pub/Sub：发布与订阅在同一进程内完成，不依赖外部 broker，
// 事件仅用于解耦审计/统计等旁路消费者，不承载主流程一致性。
//
// 使用示例：
//
//	ctx := context.Background()
//	client, err := mq.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 发布消息
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
//
//	// 订阅主题
//	ch, err := client.Subscribe(ctx, "topic")
//	for m := range ch {
//		fmt.Println(string(m.Payload))
//		m.Ack()
//	}
package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	nlog "github.com/huloud/huloud/pkg/log"
)

// Client 封装 watermill Publisher 与 Subscriber.
// GoChannel 同时承担两个角色，Close 一次即可.
type Client struct {
	bus *gochannel.GoChannel
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.bus == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		if err := c.bus.Publish(topic, m); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe 订阅主题，返回消息通道. ctx 取消时通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.bus == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.bus.Subscribe(ctx, topic)
}

// Close 关闭总线，未消费的消息被丢弃.
func (c *Client) Close() error {
	if c == nil || c.bus == nil {
		return nil
	}

	return c.bus.Close()
}

var (
	mqOnce sync.Once
	mqInst *Client
)

// New 初始化进程内事件总线（单例）.
func New(ctx context.Context) (*Client, error) {
	mqOnce.Do(func() {
		logger := &zerologAdapter{l: nlog.Logger()}

		bus := gochannel.NewGoChannel(gochannel.Config{
			// 缓冲避免慢消费者阻塞发布方
			OutputChannelBuffer: 64,
		}, logger)

		mqInst = &Client{bus: bus}

		nlog.Logger().Info().Msg("in-process event bus initialized")
	})

	return mqInst, nil
}
