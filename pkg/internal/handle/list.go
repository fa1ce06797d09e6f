package handle

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
)

const defaultRecentLimit = 20

// ListItems 列出目录内容. ?parent_id=<id> 指定目录，缺省为根层.
func ListItems(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var parentID *int64

	if raw := strings.TrimSpace(c.Query("parent_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})

			return
		}

		parentID = &id
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListChildren(c.Request.Context(), userID, parentID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListByType 按类型列出条目.
func ListByType(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListByType(c.Request.Context(), userID, c.Param("type"))
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListFavorites 列出收藏条目.
func ListFavorites(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListRecent 按更新时间倒序列出最近文件，?limit= 控制条数.
func ListRecent(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	limit := defaultRecentLimit

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})

			return
		}

		limit = n
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchItems 按名称搜索，?q= 为查询词.
func SearchItems(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Search(c.Request.Context(), userID, query)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
