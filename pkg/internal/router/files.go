package router

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件操作相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	// 文件操作路由
	filesRoutes := g.Group("/files")
	{
		// 上传文件（multipart form）
		filesRoutes.POST("", handle.UploadItem)
		// 列出目录内容（?parent_id= 缺省为根层）
		filesRoutes.GET("", handle.ListItems)
		// 按名称搜索
		filesRoutes.GET("/search", handle.SearchItems)
		// 最近文件
		filesRoutes.GET("/recent", handle.ListRecent)
		// 收藏列表
		filesRoutes.GET("/favorites", handle.ListFavorites)
		// 按类型列出
		filesRoutes.GET("/type/:type", handle.ListByType)

		// 单个文件操作
		singleGroup := filesRoutes.Group("/:id")
		{
			// 查询元数据
			singleGroup.GET("", handle.GetItem)
			// 删除（?recursive=true 级联）
			singleGroup.DELETE("", handle.DeleteItem)
			// 下载/预览（?preview=true）
			singleGroup.GET("/download", handle.DownloadItem)
			// 统一更新（name 重命名 / parent_id 移动）
			singleGroup.PATCH("", handle.UpdateItem)
			// 重命名
			singleGroup.PUT("/rename", handle.RenameItem)
			// 移动
			singleGroup.PUT("/move", handle.MoveItem)
			// 收藏开关
			singleGroup.PATCH("/favorite", handle.ToggleFavorite)
			// 分享管理
			singleGroup.POST("/share", handle.CreateShare)
			singleGroup.GET("/share", handle.GetShare)
			singleGroup.DELETE("/share", handle.DeleteShare)
		}
	}
}
