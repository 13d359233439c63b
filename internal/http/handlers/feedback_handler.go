// README: Failure report lookup for administrators.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flybot/internal/modules/feedback"
	"flybot/internal/types"
)

type FeedbackHandler struct {
	feedback *feedback.Service
}

func NewFeedbackHandler(svc *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{feedback: svc}
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid report id")
		return
	}
	r, err := h.feedback.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"report": r, "title": r.Title()})
}
