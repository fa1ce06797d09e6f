package types

import "time"

// ShareResponse 分享链接详情.
type ShareResponse struct {
	Token     string    `json:"token"`
	ItemID    int64     `json:"item_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
