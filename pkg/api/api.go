// Package api 定义 HTTP 接口的对外注册入口.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/router"
)

// APIPrefix 是业务路由的统一前缀.
const APIPrefix = "/api/v1"

// RegisterGroup 在传入的 gin 引擎上注册全部业务路由组.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	router.RegisterAll(e.Group(APIPrefix))

	return e
}
