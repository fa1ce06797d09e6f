package model

import "time"

// Share 公开分享记录：不透明 token 映射到条目. 分享链接不要求登录，
// token 即授权凭证；条目被删除时分享记录一并失效.
type Share struct {
	Token     string    `json:"token"`
	ItemID    int64     `json:"item_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone 返回分享记录的拷贝.
func (s *Share) Clone() *Share {
	cp := *s

	return &cp
}
