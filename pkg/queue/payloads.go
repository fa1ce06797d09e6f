package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 请求关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ItemRef 标识事件涉及的条目.
type ItemRef struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	IsDirectory bool   `json:"is_directory,omitempty"`
}

// ItemCreatedPayload 条目创建完成（上传文件或新建目录）.
type ItemCreatedPayload struct {
	Item ItemRef `json:"item"`
	// Source 触发来源，如 "upload"、"mkdir".
	Source string `json:"source,omitempty"`
}

// ItemMovedPayload 条目重命名或移动.
type ItemMovedPayload struct {
	Item    ItemRef `json:"item"`
	OldPath string  `json:"old_path"`
	NewPath string  `json:"new_path"`
}

// ItemDeletedPayload 条目删除，Cascaded 为级联删除的后代数量.
type ItemDeletedPayload struct {
	Item     ItemRef `json:"item"`
	Cascaded int     `json:"cascaded,omitempty"`
}

// ItemFavoritedPayload 收藏标记翻转后的状态.
type ItemFavoritedPayload struct {
	Item     ItemRef `json:"item"`
	Favorite bool    `json:"favorite"`
}

// ItemAccessedPayload 条目被读取.
type ItemAccessedPayload struct {
	Item    ItemRef `json:"item"`
	Preview bool    `json:"preview,omitempty"`
	Token   string  `json:"token,omitempty"` // 经分享链接访问时的 token
}

// ItemPrunedPayload 孤儿条目被清理.
type ItemPrunedPayload struct {
	Item ItemRef `json:"item"`
	// Reason 清理来源："lazy"（访问触发）或 "sweep"（后台扫描）.
	Reason string `json:"reason,omitempty"`
}
