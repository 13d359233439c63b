// README: Itinerary handlers for get/list/cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flybot/internal/modules/itinerary"
	"flybot/internal/types"
)

type ItineraryHandler struct {
	itinerary *itinerary.Service
}

func NewItineraryHandler(svc *itinerary.Service) *ItineraryHandler {
	return &ItineraryHandler{itinerary: svc}
}

func (h *ItineraryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid itinerary id")
		return
	}
	it, err := h.itinerary.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, it)
}

// ListByConversation handles GET /api/conversations/:id/itineraries.
func (h *ItineraryHandler) ListByConversation(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid conversation id")
		return
	}
	items, err := h.itinerary.ListByConversation(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if items == nil {
		items = []*itinerary.Itinerary{}
	}
	writeJSON(c, http.StatusOK, gin.H{"itineraries": items})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *ItineraryHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid itinerary id")
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "user_cancel"
	}
	err := h.itinerary.Cancel(c.Request.Context(), itinerary.CancelCommand{
		ItineraryID: types.ID(id),
		ActorType:   "traveller",
		Reason:      req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": itinerary.StatusCancelled})
}
