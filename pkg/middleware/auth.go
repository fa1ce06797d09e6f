package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/configs"
)

// AuthMiddleware 基于认证网关注入的请求头做统一身份校验。
//   - 要求存在配置的用户头（默认 X-User），且为正整数用户 ID
//   - 支持通过配置跳过某些路径（如 /metrics, /health, 分享链接）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	header := conf.UserHeader
	if header == "" {
		header = "X-User"
	}

	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" && conf.DevAllowQuery {
			raw = strings.TrimSpace(c.Query("user"))
		}

		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})

			return
		}

		c.Next()
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
