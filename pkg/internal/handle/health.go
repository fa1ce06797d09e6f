// Package handle 新增健康检查处理器实现.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/configs"
	ctxPkg "github.com/huloud/huloud/pkg/context"
)

// Health 整体存活探针：存储两翼都就绪即为健康.
func Health(c *gin.Context) {
	fs := ctxPkg.GetFSStore(c.Request.Context())
	ix := ctxPkg.GetIndex(c.Request.Context())

	if fs == nil || ix == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthFS 物理存储健康检查：客户端已初始化且存储根可写.
func HealthFS(c *gin.Context) {
	fs := ctxPkg.GetFSStore(c.Request.Context())
	if fs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "fsstore", "status": "unhealthy", "error": "fs store not initialized"})
		return
	}

	// EnsureUserRoot 幂等，借用户 0（保留 ID）探测根目录可写性
	if err := fs.EnsureUserRoot(0); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "fsstore", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "fsstore", "status": "ok", "root": configs.GetConfig().Storage.RootPath})
}

// HealthIndex 元数据索引健康检查.
func HealthIndex(c *gin.Context) {
	ix := ctxPkg.GetIndex(c.Request.Context())
	if ix == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "index", "status": "unhealthy", "error": "index not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "index", "status": "ok", "users": len(ix.UserIDs())})
}

// HealthMQ 事件总线健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // 事件可整体关闭，这不算故障
		c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}
