package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
)

// CreateFolder 新建目录.
func CreateFolder(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var req types.CreateFolderRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid create folder request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewVaultService(c.Request.Context())

	resp, err := svc.CreateFolder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}
