package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kubev2v/inkcore/internal/services"
)

type Handler struct {
	sessionSrv *services.SessionService
}

func New(sessionSrv *services.SessionService) *Handler {
	return &Handler{
		sessionSrv: sessionSrv,
	}
}

// RegisterHandlers mounts the API routes on router, which is expected to be
// the /api/v1 group.
func RegisterHandlers(router gin.IRouter, h *Handler) {
	router.GET("/status", h.GetStatus)

	router.GET("/sessions", h.ListSessions)
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions/:id", h.GetSession)
	router.PUT("/sessions/:id", h.TouchSession)
	router.DELETE("/sessions/:id", h.DeleteSession)
}
