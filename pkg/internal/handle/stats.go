package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
)

// StorageStats 返回当前用户的用量统计.
func StorageStats(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.StatsFor(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
