// Package events 实现条目事件的进程内消费者：订阅 hl.item.* 主题，
// 把事件以结构化日志落盘，作为审计与排障的最小下游.
package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/queue"
)

// Subscriber 是消费者需要的最小订阅接口，storage/mq 的 Client 满足它.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// itemTopics 消费者关注的全部条目主题.
var itemTopics = []string{
	queue.TopicItemCreated,
	queue.TopicItemMoved,
	queue.TopicItemDeleted,
	queue.TopicItemFavorited,
	queue.TopicItemAccessed,
	queue.TopicItemPruned,
}

// StartItemLogger 订阅全部条目主题并在后台消费. 返回时订阅已全部建立；
// 消费循环随订阅通道关闭而退出（ctx 取消时由发布端关闭通道）.
func StartItemLogger(ctx context.Context, sub Subscriber) error {
	for _, topic := range itemTopics {
		ch, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return err
		}

		go consumeLoop(topic, ch)
	}

	log.Logger().Info().Int("topics", len(itemTopics)).Msg("item event logger started")

	return nil
}

// consumeLoop 逐条记录并确认. 日志消费者没有重试价值，解析失败的消息
// 同样确认掉，避免死信堆积.
func consumeLoop(topic string, ch <-chan *message.Message) {
	for msg := range ch {
		logItemEvent(topic, msg)
		msg.Ack()
	}
}

func logItemEvent(topic string, msg *message.Message) {
	l := log.Logger()

	switch topic {
	case queue.TopicItemCreated:
		env, err := queue.ParseItemCreated(msg)
		if err != nil {
			l.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("undecodable item event")

			return
		}

		l.Info().Str("topic", topic).Int64("id", env.Payload.Item.ID).Int64("user", env.Payload.Item.UserID).
			Str("path", env.Payload.Item.Path).Str("source", env.Payload.Source).Msg("item created")
	case queue.TopicItemDeleted:
		env, err := queue.ParseItemDeleted(msg)
		if err != nil {
			l.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("undecodable item event")

			return
		}

		l.Info().Str("topic", topic).Int64("id", env.Payload.Item.ID).Int64("user", env.Payload.Item.UserID).
			Int("cascaded", env.Payload.Cascaded).Msg("item deleted")
	case queue.TopicItemPruned:
		env, err := queue.ParseItemPruned(msg)
		if err != nil {
			l.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("undecodable item event")

			return
		}

		l.Info().Str("topic", topic).Int64("id", env.Payload.Item.ID).Int64("user", env.Payload.Item.UserID).
			Str("reason", env.Payload.Reason).Msg("item pruned")
	default:
		// 其余主题记录信封原文即可，暂无下游需要强类型
		l.Info().Str("topic", topic).Str("message_id", msg.UUID).RawJSON("event", msg.Payload).Msg("item event")
	}
}
