package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/loopcrm/mailbridge/internal/errors"
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
)

type fakeCredentialRepository struct {
	patched    map[string]string
	patchErr   error
	patchCalls int32
}

func newFakeCredentialRepository() *fakeCredentialRepository {
	return &fakeCredentialRepository{patched: make(map[string]string)}
}

func (f *fakeCredentialRepository) GetByUser(ctx context.Context, userID string) (*models.MailCredential, error) {
	return nil, nil
}

func (f *fakeCredentialRepository) Save(ctx context.Context, credential *models.MailCredential) error {
	return nil
}

func (f *fakeCredentialRepository) PatchAccessToken(ctx context.Context, userID string, accessToken string) error {
	atomic.AddInt32(&f.patchCalls, 1)
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patched[userID] = accessToken
	return nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func oauthCredential() *models.MailCredential {
	return &models.MailCredential{
		UserID:       "user-1",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token",
	}
}

func TestEnsureAccessToken_CachedTokenUsedAsIs(t *testing.T) {
	// No freshness check: a present token is returned without any network
	// call or store write.
	var endpointCalls int32
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&endpointCalls, 1)
	}))
	defer endpoint.Close()

	repo := newFakeCredentialRepository()
	manager := NewManager(repo, getLogger(), endpoint.URL)

	credential := oauthCredential()
	credential.AccessToken = "cached-token"

	accessToken, err := manager.EnsureAccessToken(context.Background(), credential)

	require.NoError(t, err)
	assert.Equal(t, "cached-token", accessToken)
	assert.Zero(t, atomic.LoadInt32(&endpointCalls))
	assert.Zero(t, atomic.LoadInt32(&repo.patchCalls))
}

func TestEnsureAccessToken_RefreshesAndPersists(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","expires_in":3599,"token_type":"Bearer"}`))
	}))
	defer endpoint.Close()

	repo := newFakeCredentialRepository()
	manager := NewManager(repo, getLogger(), endpoint.URL)

	credential := oauthCredential()
	accessToken, err := manager.EnsureAccessToken(context.Background(), credential)

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", accessToken)
	assert.Equal(t, "fresh-token", repo.patched["user-1"])
	assert.Equal(t, "fresh-token", credential.AccessToken)
}

func TestEnsureAccessToken_ProviderErrorVerbatim(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer endpoint.Close()

	repo := newFakeCredentialRepository()
	manager := NewManager(repo, getLogger(), endpoint.URL)

	_, err := manager.EnsureAccessToken(context.Background(), oauthCredential())

	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrTokenRefreshFailed))
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "Token has been expired or revoked.")
	assert.Zero(t, atomic.LoadInt32(&repo.patchCalls))
}

func TestEnsureAccessToken_EmptyTokenInResponse(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer endpoint.Close()

	manager := NewManager(newFakeCredentialRepository(), getLogger(), endpoint.URL)

	_, err := manager.EnsureAccessToken(context.Background(), oauthCredential())

	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrTokenRefreshFailed))
}

func TestEnsureAccessToken_PatchFailureSurfaced(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token"}`))
	}))
	defer endpoint.Close()

	repo := newFakeCredentialRepository()
	repo.patchErr = errors.New("database unavailable")
	manager := NewManager(repo, getLogger(), endpoint.URL)

	_, err := manager.EnsureAccessToken(context.Background(), oauthCredential())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
}
