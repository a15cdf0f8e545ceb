package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/loopcrm/mailbridge/interfaces"
	er "github.com/loopcrm/mailbridge/internal/errors"
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
)

const DefaultGoogleTokenEndpoint = "https://oauth2.googleapis.com/token"

// Manager handles the OAuth2 access-token lifecycle for API-based sending.
// A cached access token is used as-is; freshness is not checked proactively,
// the downstream API call is the arbiter. A missing token triggers exactly one
// refresh exchange, persisted back to the credential store before it is
// handed out. The exchange is never retried and concurrent callers are not
// serialized; two in-flight sends may both refresh and the last write wins.
type Manager struct {
	credentialRepository interfaces.CredentialRepository
	log                  logger.Logger
	httpClient           *http.Client
	tokenEndpoint        string
}

func NewManager(credentialRepository interfaces.CredentialRepository, log logger.Logger, tokenEndpoint string) *Manager {
	if tokenEndpoint == "" {
		tokenEndpoint = DefaultGoogleTokenEndpoint
	}
	return &Manager{
		credentialRepository: credentialRepository,
		log:                  log,
		httpClient:           &http.Client{Timeout: 15 * time.Second},
		tokenEndpoint:        tokenEndpoint,
	}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// EnsureAccessToken returns a usable access token for the credential,
// refreshing and persisting one if none is cached.
func (m *Manager) EnsureAccessToken(ctx context.Context, credential *models.MailCredential) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Manager.EnsureAccessToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if credential.AccessToken != "" {
		return credential.AccessToken, nil
	}

	accessToken, err := m.refreshAccessToken(ctx, credential)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	if err := m.credentialRepository.PatchAccessToken(ctx, credential.UserID, accessToken); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	credential.AccessToken = accessToken

	m.log.Infof("refreshed OAuth2 access token for user %s", credential.UserID)
	return accessToken, nil
}

// refreshAccessToken exchanges the refresh token for a new access token. A
// provider error body is carried back verbatim; nothing is retried here.
func (m *Manager) refreshAccessToken(ctx context.Context, credential *models.MailCredential) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Manager.refreshAccessToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	form := url.Values{}
	form.Set("client_id", credential.ClientID)
	form.Set("client_secret", credential.ClientSecret)
	form.Set("refresh_token", credential.RefreshToken)
	form.Set("grant_type", "refresh_token")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request = tracing.InjectSpanContextIntoHTTPRequest(request, span)

	response, err := m.httpClient.Do(request)
	if err != nil {
		return "", errors.Wrapf(er.ErrTokenRefreshFailed, "token endpoint unreachable: %v", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", errors.Wrapf(er.ErrTokenRefreshFailed, "unexpected token response: %s", string(body))
	}

	if response.StatusCode != http.StatusOK || tokenResp.Error != "" {
		providerText := tokenResp.Error
		if tokenResp.ErrorDescription != "" {
			providerText = providerText + ": " + tokenResp.ErrorDescription
		}
		if providerText == "" {
			providerText = string(body)
		}
		return "", errors.Wrap(er.ErrTokenRefreshFailed, providerText)
	}

	if tokenResp.AccessToken == "" {
		return "", errors.Wrap(er.ErrTokenRefreshFailed, "provider returned no access token")
	}

	return tokenResp.AccessToken, nil
}
