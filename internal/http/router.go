// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flybot/internal/http/handlers"
	"flybot/internal/http/middleware"
	"flybot/internal/modules/conversation"
	"flybot/internal/modules/feedback"
	"flybot/internal/modules/itinerary"
)

type RouterDeps struct {
	Conversations *conversation.Registry
	Itineraries   *itinerary.Service
	Feedback      *feedback.Service
	// Limiter is optional.
	Limiter        *middleware.RateLimiter
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware(logger))
	}

	conversationHandler := handlers.NewConversationHandler(deps.Conversations, deps.RequestTimeout)
	api.POST("/conversations", conversationHandler.Start)
	api.POST("/conversations/:id/messages", conversationHandler.Message)
	api.DELETE("/conversations/:id", conversationHandler.Close)

	itineraryHandler := handlers.NewItineraryHandler(deps.Itineraries)
	api.GET("/conversations/:id/itineraries", itineraryHandler.ListByConversation)
	api.GET("/itineraries/:id", itineraryHandler.Get)
	api.POST("/itineraries/:id/cancel", itineraryHandler.Cancel)

	if deps.Feedback != nil {
		feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback)
		api.GET("/reports/:id", feedbackHandler.Get)
	}

	return r
}
