package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/kubev2v/inkcore/api/v1"
)

// GetStatus returns the task pool and reaper status
// (GET /status)
func (h *Handler) GetStatus(c *gin.Context) {
	var status v1.Status
	status.FromModel(h.sessionSrv.Status())
	c.JSON(http.StatusOK, status)
}
