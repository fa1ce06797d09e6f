package handle

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
)

// UploadItem 处理文件上传（multipart form，字段 file；parent_id 可选）.
// 内容流式写入物理存储，不整体缓冲在内存里.
func UploadItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Logger().Warn().Err(err).Msg("missing multipart file field")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})

		return
	}

	var parentID *int64

	if raw := strings.TrimSpace(c.PostForm("parent_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})

			return
		}

		parentID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer src.Close()

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.UploadFile(c.Request.Context(), userID, parentID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), src)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetItem 按 ID 查询条目，物理内容缺失时触发惰性清理并返回 404.
func GetItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteItem 删除条目. HTTP 层默认级联（目录连同全部后代一起删），
// 显式传 ?recursive=false 才启用非空目录保护.
func DeleteItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	recursive := c.DefaultQuery("recursive", "true") == "true"

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Delete(c.Request.Context(), userID, id, recursive)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// RenameItem 重命名条目.
func RenameItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.RenameItemRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid rename request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Rename(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// MoveItem 移动条目到新父目录.
func MoveItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.MoveItemRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid move request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.Move(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateItem 统一的 PATCH 入口：body 里出现 name 则重命名，出现 parent_id
// 则移动（显式 null 表示移到根层）. 字段缺席与显式 null 语义不同，
// 因此先按原始键判断存在性再分派.
func UpdateItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid update request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	var resp *types.ItemResponse

	if v, present := raw["name"]; present {
		name, ok := v.(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be a string"})

			return
		}

		r, err := svc.Rename(c.Request.Context(), userID, id, &types.RenameItemRequest{NewName: name})
		if err != nil {
			respondError(c, err)

			return
		}

		resp = r
	}

	if v, present := raw["parent_id"]; present {
		var req types.MoveItemRequest

		if v != nil {
			num, ok := v.(float64)
			if !ok || num != float64(int64(num)) || int64(num) <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "parent_id must be a positive integer or null"})

				return
			}

			pid := int64(num)
			req.NewParentID = &pid
		}

		r, err := svc.Move(c.Request.Context(), userID, id, &req)
		if err != nil {
			respondError(c, err)

			return
		}

		resp = r
	}

	if resp == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ToggleFavorite 翻转收藏标记.
func ToggleFavorite(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.ToggleFavorite(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
