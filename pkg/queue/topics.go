// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：hl.<域>.<动作>，尽量稳定且向后兼容.
// 域：item(文件树条目)；动作：created/moved/deleted/favorited/accessed/pruned.

const (
	TopicItemCreated   = "hl.item.created"   // 条目已创建（上传文件或新建目录），物理写入与元数据提交均已完成
	TopicItemMoved     = "hl.item.moved"     // 条目重命名或移动，payload 携带新旧路径
	TopicItemDeleted   = "hl.item.deleted"   // 条目（含级联后代）已删除
	TopicItemFavorited = "hl.item.favorited" // 收藏标记翻转
	TopicItemAccessed  = "hl.item.accessed"  // 条目被下载/预览（用于热点统计，默认关闭）
	TopicItemPruned    = "hl.item.pruned"    // 惰性清理或后台扫描移除了物理内容缺失的孤儿条目
)
