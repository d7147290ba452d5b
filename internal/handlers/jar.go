package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/services"
)

type JarHandler struct {
	jarService services.JarService
}

func NewJarHandler(jarService services.JarService) *JarHandler {
	return &JarHandler{jarService: jarService}
}

func (jh *JarHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jar, err := jh.jarService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "jar_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, jar)
}

func (jh *JarHandler) List(c *gin.Context) {
	jars, err := jh.jarService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "jar_list_failed", err)
		return
	}
	RespondOK(c, jars)
}

func (jh *JarHandler) Get(c *gin.Context) {
	jarID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	detail, err := jh.jarService.Get(c.Request.Context(), jarID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "jar_not_found", err)
		return
	}
	RespondOK(c, detail)
}

func (jh *JarHandler) UpdateDescription(c *gin.Context) {
	jarID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jar, err := jh.jarService.UpdateDescription(c.Request.Context(), jarID, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "jar_update_failed", err)
		return
	}
	RespondOK(c, jar)
}

func (jh *JarHandler) Delete(c *gin.Context) {
	jarID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := jh.jarService.Delete(c.Request.Context(), jarID); err != nil {
		RespondError(c, http.StatusNotFound, "jar_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", param, err)
	}
	return id, nil
}
