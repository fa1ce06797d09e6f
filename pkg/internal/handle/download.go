package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
)

// DownloadItem 下载文件内容. ?preview=true 时内联展示（Content-Disposition
// inline），否则作为附件下载. 支持 If-None-Match 协商缓存.
func DownloadItem(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	preview := c.Query("preview") == "true"

	svc := service.NewVaultService(c.Request.Context())

	res, err := svc.Download(c.Request.Context(), userID, id, preview)
	if err != nil {
		respondError(c, err)

		return
	}
	defer res.Content.Close()

	writeContent(c, res, preview)
}

// writeContent 输出文件内容与缓存/处置头，下载与分享访问共用.
func writeContent(c *gin.Context, res *service.DownloadResult, preview bool) {
	if match := c.GetHeader("If-None-Match"); match != "" && match == res.ETag {
		c.Status(http.StatusNotModified)

		return
	}

	c.Header("ETag", res.ETag)
	c.Header("Content-Length", strconv.FormatInt(res.Item.Size, 10))

	disposition := "attachment"
	if preview {
		disposition = "inline"
	}

	c.Header("Content-Disposition", disposition+`; filename="`+res.Item.Name+`"`)

	c.DataFromReader(http.StatusOK, res.Item.Size, res.ContentType, res.Content, nil)
}
