package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarboard/backend/internal/services"
)

type TagHandler struct {
	tagService services.TagService
}

func NewTagHandler(tagService services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (th *TagHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	tag, err := th.tagService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "tag_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (th *TagHandler) List(c *gin.Context) {
	tags, err := th.tagService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "tag_list_failed", err)
		return
	}
	RespondOK(c, tags)
}

func (th *TagHandler) Get(c *gin.Context) {
	tagID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	detail, err := th.tagService.Get(c.Request.Context(), tagID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "tag_not_found", err)
		return
	}
	RespondOK(c, detail)
}

func (th *TagHandler) UpdateDescription(c *gin.Context) {
	tagID, err := pathID(c, "id")
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
	tag, err := th.tagService.UpdateDescription(c.Request.Context(), tagID, req.Description)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "tag_update_failed", err)
		return
	}
	RespondOK(c, tag)
}

func (th *TagHandler) Delete(c *gin.Context) {
	tagID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := th.tagService.Delete(c.Request.Context(), tagID); err != nil {
		RespondError(c, http.StatusNotFound, "tag_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
