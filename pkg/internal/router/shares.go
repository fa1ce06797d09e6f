package router

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/handle"
)

// RegisterSharesRoutes 注册文件分享相关路由.
// 分享访问不要求登录（token 即凭证），认证中间件按路径前缀放行.
func RegisterSharesRoutes(g *gin.RouterGroup) {
	sharesRoutes := g.Group("/shares")
	{
		// 分享条目元数据
		sharesRoutes.GET("/:token", handle.ResolveShare)
		// 分享内容下载
		sharesRoutes.GET("/:token/download", handle.AccessShare)
	}
}
