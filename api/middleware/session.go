package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/loopcrm/mailbridge/internal/utils"
)

// Headers the CRM gateway forwards after verifying the user's JWT.
var userIdHeaders = []string{"X-LOOPCRM-USER-ID", "X-USER-ID"}

const userEmailHeader = "X-LOOPCRM-USER-EMAIL"

// SessionMiddleware lifts the authenticated user identity off the request
// headers into a SessionContext on the request context. Absence is not
// rejected here: the credential store surfaces it as AuthRequired so callers
// get a consistent failure wherever the precondition is actually needed.
func SessionMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := ""
		for _, header := range userIdHeaders {
			if value := c.GetHeader(header); value != "" {
				userId = value
				break
			}
		}

		c.Set("UserId", userId)
		c.Set("UserEmail", c.GetHeader(userEmailHeader))

		ctx := utils.WithSessionFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
