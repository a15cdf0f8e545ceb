package errors

import "github.com/pkg/errors"

var (
	// session errors
	ErrAuthRequired = errors.New("authentication required")

	// credential errors
	ErrCredentialNotFound = errors.New("mail credential not found")

	// token errors
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// send errors
	ErrUnsupportedSendPath = errors.New("direct SMTP sending is not supported in this environment")
	ErrProviderApiError    = errors.New("mail provider API error")
)
