package interfaces

import (
	"context"

	"github.com/loopcrm/mailbridge/internal/models"
)

// CredentialRepository is the store for per-user mail-sending credentials.
// Every method requires an authenticated session on the context and fails
// with ErrAuthRequired without one.
type CredentialRepository interface {
	// GetByUser returns the credential for the user, or (nil, nil) if the
	// user has never saved one. Absence is a normal state, not a failure.
	GetByUser(ctx context.Context, userID string) (*models.MailCredential, error)

	// Save upserts by user id: exactly one row per user at steady state.
	Save(ctx context.Context, credential *models.MailCredential) error

	// PatchAccessToken updates only the cached OAuth2 access token. Used by
	// the token lifecycle manager outside of any explicit user save.
	PatchAccessToken(ctx context.Context, userID string, accessToken string) error
}
