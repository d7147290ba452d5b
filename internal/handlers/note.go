package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarboard/backend/internal/services"
)

type NoteHandler struct {
	noteService services.NoteService
}

func NewNoteHandler(noteService services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (nh *NoteHandler) Create(c *gin.Context) {
	var req services.CreateNoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	note, err := nh.noteService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "note_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (nh *NoteHandler) List(c *gin.Context) {
	notes, err := nh.noteService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "note_list_failed", err)
		return
	}
	RespondOK(c, notes)
}

func (nh *NoteHandler) Get(c *gin.Context) {
	noteID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	note, err := nh.noteService.Get(c.Request.Context(), noteID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "note_not_found", err)
		return
	}
	RespondOK(c, note)
}

func (nh *NoteHandler) Update(c *gin.Context) {
	noteID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req services.UpdateNoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	note, err := nh.noteService.Update(c.Request.Context(), noteID, req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "note_update_failed", err)
		return
	}
	RespondOK(c, note)
}

func (nh *NoteHandler) Delete(c *gin.Context) {
	noteID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := nh.noteService.Delete(c.Request.Context(), noteID); err != nil {
		RespondError(c, http.StatusNotFound, "note_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
