package router

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("", handle.Health)
		healthRoutes.GET("/fs", handle.HealthFS)
		healthRoutes.GET("/index", handle.HealthIndex)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}
