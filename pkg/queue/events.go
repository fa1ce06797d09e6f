package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishItemCreated 发布 hl.item.created 事件。
// 在物理写入与元数据提交都完成后调用，通知下游消费者（审计、统计等）。
func PublishItemCreated(pub message.Publisher, payload ItemCreatedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemCreated, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemCreated, msg)
}

// PublishItemMoved 发布 hl.item.moved 事件。
func PublishItemMoved(pub message.Publisher, payload ItemMovedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemMoved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemMoved, msg)
}

// PublishItemDeleted 发布 hl.item.deleted 事件。
func PublishItemDeleted(pub message.Publisher, payload ItemDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemDeleted, msg)
}

// PublishItemFavorited 发布 hl.item.favorited 事件。
func PublishItemFavorited(pub message.Publisher, payload ItemFavoritedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemFavorited, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemFavorited, msg)
}

// PublishItemAccessed 发布 hl.item.accessed 事件。
func PublishItemAccessed(pub message.Publisher, payload ItemAccessedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemAccessed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemAccessed, msg)
}

// PublishItemPruned 发布 hl.item.pruned 事件。
func PublishItemPruned(pub message.Publisher, payload ItemPrunedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicItemPruned, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicItemPruned, msg)
}

// ParseItemCreated 将 Watermill 消息解析为强类型 Envelope（ItemCreatedPayload）。
func ParseItemCreated(msg *message.Message) (Message[ItemCreatedPayload], error) {
	return ParseWatermillMessage[ItemCreatedPayload](msg)
}

// ParseItemDeleted 将 Watermill 消息解析为强类型 Envelope（ItemDeletedPayload）。
func ParseItemDeleted(msg *message.Message) (Message[ItemDeletedPayload], error) {
	return ParseWatermillMessage[ItemDeletedPayload](msg)
}

// ParseItemPruned 将 Watermill 消息解析为强类型 Envelope（ItemPrunedPayload）。
func ParseItemPruned(msg *message.Message) (Message[ItemPrunedPayload], error) {
	return ParseWatermillMessage[ItemPrunedPayload](msg)
}
