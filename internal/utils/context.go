package utils

import (
	"context"

	"github.com/gin-gonic/gin"

	er "github.com/loopcrm/mailbridge/internal/errors"
)

// SessionContext identifies the authenticated caller of a request. Credential
// store operations require it; an empty UserId is surfaced as ErrAuthRequired,
// never silently defaulted.
type SessionContext struct {
	AppSource string
	UserId    string
	UserEmail string
}

type sessionContextKey struct{}

func WithSessionContext(ctx context.Context, session *SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func WithSessionFromGinRequest(c *gin.Context, appSource string) context.Context {
	session := &SessionContext{
		AppSource: appSource,
		UserId:    c.GetString("UserId"),
		UserEmail: c.GetString("UserEmail"),
	}
	return WithSessionContext(c.Request.Context(), session)
}

func GetSessionContext(ctx context.Context) *SessionContext {
	session, ok := ctx.Value(sessionContextKey{}).(*SessionContext)
	if !ok {
		return new(SessionContext)
	}
	return session
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetSessionContext(ctx).AppSource
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetSessionContext(ctx).UserId
}

func GetUserEmailFromContext(ctx context.Context) string {
	return GetSessionContext(ctx).UserEmail
}

// ValidateSession checks the authenticated-session precondition for
// credential store access.
func ValidateSession(ctx context.Context) error {
	if GetUserIdFromContext(ctx) == "" {
		return er.ErrAuthRequired
	}
	return nil
}
