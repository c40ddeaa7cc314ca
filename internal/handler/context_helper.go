package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edutrack-io/internship-api/internal/middleware"
	"github.com/edutrack-io/internship-api/internal/models"
)

func actorFromContext(c *gin.Context) *models.ActorClaims {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.ActorClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorIDFromContext(c *gin.Context) string {
	if claims := actorFromContext(c); claims != nil {
		return claims.ActorID()
	}
	return ""
}
