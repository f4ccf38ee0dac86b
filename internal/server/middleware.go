package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/procura/internal/actorctx"
)

const actorIDHeader = "X-Actor-Id"

// ActorMiddleware passes through the already-resolved actor identity from
// the upstream auth layer. Requests without one are rejected before any
// handler runs.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(actorIDHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": &apiError{
				Status:  http.StatusUnauthorized,
				Kind:    KindUnauthorized,
				Code:    "missing_actor",
				Message: "actor identity is missing",
			}})
			return
		}
		actorID, err := snowflake.ParseString(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": &apiError{
				Status:  http.StatusUnauthorized,
				Kind:    KindUnauthorized,
				Code:    "invalid_actor",
				Message: "actor identity is malformed",
			}})
			return
		}

		ctx := actorctx.WithActor(c.Request.Context(), actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
