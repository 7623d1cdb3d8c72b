package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/inkcore/api/v1"
	srvErrors "github.com/kubev2v/inkcore/pkg/errors"
)

// ListSessions returns the live sessions, oldest first
// (GET /sessions)
func (h *Handler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewSessionListFromModel(h.sessionSrv.List()))
}

// CreateSession opens a new session
// (POST /sessions)
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessionSrv.Create()
	c.Header("Location", c.FullPath()+"/"+session.ID)
	c.JSON(http.StatusCreated, v1.NewSessionFromModel(session))
}

// GetSession returns a session without refreshing it
// (GET /sessions/{id})
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := h.sessionSrv.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.NewSessionFromModel(session))
}

// TouchSession marks a session as active
// (PUT /sessions/{id})
func (h *Handler) TouchSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := h.sessionSrv.Touch(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.NewSessionFromModel(session))
}

// DeleteSession closes a session
// (DELETE /sessions/{id})
func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.sessionSrv.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// sessionID binds the id path parameter as a UUID. On failure it writes a 400
// and reports false.
func sessionID(c *gin.Context) (string, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: fmt.Sprintf("Invalid format for parameter id: %s", err)})
		return "", false
	}
	return id.String(), true
}

func writeError(c *gin.Context, err error) {
	if srvErrors.IsSessionNotFoundError(err) {
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
		return
	}
	zap.S().Named("session_handler").Errorw("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, v1.Error{Error: "internal error"})
}
