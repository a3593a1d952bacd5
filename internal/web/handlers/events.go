package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/realtime"
)

type EventsHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewEventsHandler(log *logger.Logger, hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{log: log.With("handler", "EventsHandler"), hub: hub}
}

// Stream holds an SSE connection open until the page leaves.
func (h *EventsHandler) Stream(c *gin.Context) {
	client := h.hub.Register()
	defer h.hub.Unregister(client)
	h.log.Debug("event stream open", "clientID", client.ID)
	h.hub.Serve(c.Writer, c.Request, client)
	h.log.Debug("event stream closed", "clientID", client.ID)
}
