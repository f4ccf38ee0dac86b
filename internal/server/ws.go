package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/procura/internal/realtime"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the upstream gateway.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Subscribe upgrades the request to a websocket and hands the connection to
// the hub. The initial subscription comes from query parameters; resourceId
// defaults to the wildcard.
func (s *Server) Subscribe(c *gin.Context) {
	resource := strings.TrimSpace(c.Query("resource"))
	if resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Status:  http.StatusBadRequest,
			Kind:    KindValidation,
			Code:    "missing_resource",
			Message: "resource query parameter is required",
		}})
		return
	}
	resourceID := strings.TrimSpace(c.Query("resourceId"))
	if resourceID == "" {
		resourceID = realtime.WildcardID
	}

	// Browsers cannot set headers on websocket dials, so the actor id is
	// also accepted as a query parameter.
	actorID := strings.TrimSpace(c.GetHeader(actorIDHeader))
	if actorID == "" {
		actorID = strings.TrimSpace(c.Query("actorId"))
	}

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.hub.HandleConnection(sock, actorID, realtime.Key{
		ResourceType: resource,
		ResourceID:   resourceID,
	})
}
