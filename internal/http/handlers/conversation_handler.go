// README: Conversation handlers; open a dialog, send an utterance, close it.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flybot/internal/modules/conversation"
	"flybot/internal/types"
)

const maxUtteranceLen = 1000

type ConversationHandler struct {
	registry *conversation.Registry
	timeout  time.Duration
}

func NewConversationHandler(registry *conversation.Registry, timeout time.Duration) *ConversationHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ConversationHandler{registry: registry, timeout: timeout}
}

type startResp struct {
	ID types.ID `json:"id"`
	conversation.Reply
}

// Start handles POST /api/conversations.
func (h *ConversationHandler) Start(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	id, reply := h.registry.Start(ctx)
	writeJSON(c, http.StatusCreated, startResp{ID: id, Reply: reply})
}

type messageReq struct {
	Text string `json:"text"`
}

// Message handles POST /api/conversations/:id/messages.
func (h *ConversationHandler) Message(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid conversation id")
		return
	}
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(c, http.StatusBadRequest, "missing text")
		return
	}
	if len(req.Text) > maxUtteranceLen {
		writeError(c, http.StatusBadRequest, "text too long")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	reply, err := h.registry.Handle(ctx, types.ID(id), req.Text)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, reply)
}

// Close handles DELETE /api/conversations/:id.
func (h *ConversationHandler) Close(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if !h.registry.Close(types.ID(id)) {
		writeDomainError(c, conversation.ErrConversationNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
