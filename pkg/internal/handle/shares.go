package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
)

// CreateShare 为条目创建分享链接，幂等.
func CreateShare(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.CreateShare(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetShare 查询条目的分享详情（属主视角）.
func GetShare(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.GetShare(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteShare 撤销条目的分享链接.
func DeleteShare(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	if err := svc.RevokeShareForItem(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// ResolveShare 按 token 查询分享条目的元数据，不要求登录.
func ResolveShare(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ResolveShare(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// AccessShare 经分享 token 下载内容，不要求登录.
func AccessShare(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})

		return
	}

	preview := c.Query("preview") == "true"

	svc := service.NewVaultService(c.Request.Context())

	res, err := svc.DownloadShared(c.Request.Context(), token, preview)
	if err != nil {
		respondError(c, err)

		return
	}
	defer res.Content.Close()

	writeContent(c, res, preview)
}
