package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarboard/backend/internal/services"
)

type SuggestHandler struct {
	suggestService services.SuggestService
}

func NewSuggestHandler(suggestService services.SuggestService) *SuggestHandler {
	return &SuggestHandler{suggestService: suggestService}
}

// Suggest autocompletes the mention under the caret. The client sends the
// full draft text plus the caret's byte offset and gets back the active
// mention span with ranked candidates.
func (sh *SuggestHandler) Suggest(c *gin.Context) {
	var req struct {
		Text  string `json:"text"`
		Caret int    `json:"caret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Caret < 0 || req.Caret > len(req.Text) {
		req.Caret = len(req.Text)
	}
	result, err := sh.suggestService.Suggest(c.Request.Context(), req.Text, req.Caret)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "suggest_failed", err)
		return
	}
	RespondOK(c, result)
}
