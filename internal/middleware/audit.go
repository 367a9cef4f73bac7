package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/campus-osa/care-desk-api/internal/models"
)

type auditWriter interface {
	Create(ctx context.Context, q sqlx.ExtContext, log *models.AuditLog) error
}

// Audit records an audit entry after a successful request, for routes whose
// writes are not already audited inside a service.
func Audit(audits auditWriter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		userName := "anonymous"
		if claimsValue, ok := c.Get(ContextUserKey); ok {
			claims := claimsValue.(*models.JWTClaims)
			userID = &claims.UserID
			userName = claims.FullName
		}

		_ = audits.Create(c.Request.Context(), nil, &models.AuditLog{
			UserID:   userID,
			UserName: userName,
			Action:   action,
			Details:  fmt.Sprintf("%s %s -> %d", c.Request.Method, c.FullPath(), c.Writer.Status()),
		})
	}
}
