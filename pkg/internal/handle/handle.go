// Package handle 提供请求处理器的实现，负责参数解析、用户识别与错误码映射，
// 业务逻辑全部委托给 service 层.
package handle

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/configs"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// checkUser 提取当前用户 ID：认证网关注入的请求头优先，开发模式允许
// query 参数兜底. 身份本身由外部网关保证，这里只做解析与基本校验.
func checkUser(c *gin.Context) (int64, error) {
	authCfg := configs.GetConfig().Auth

	header := authCfg.UserHeader
	if header == "" {
		header = "X-User"
	}

	raw := strings.TrimSpace(c.GetHeader(header))
	if raw == "" && authCfg.DevAllowQuery {
		raw = strings.TrimSpace(c.Query("user"))
	}

	if err := rule.ValidateVar(raw, "required,number"); err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errs.ErrForbidden
	}

	return userID, nil
}

// mustUser 解析用户失败时直接写 401 并中止.
func mustUser(c *gin.Context) (int64, bool) {
	userID, err := checkUser(c)
	if err != nil {
		log.Logger().Warn().Err(err).Msg("missing or invalid user identity")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

		return 0, false
	}

	return userID, true
}

// pathID 解析路径中的 :id 参数.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return 0, false
	}

	return id, true
}

// respondError 按错误分类映射 HTTP 状态码.
func respondError(c *gin.Context, err error) {
	status := errs.Status(err)
	if status >= http.StatusInternalServerError {
		log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
