package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcrm/mailbridge/internal/enum"
	"github.com/loopcrm/mailbridge/internal/models"
)

func validPlainCredential() *models.MailCredential {
	return &models.MailCredential{
		Host:       "smtp.gmail.com",
		Port:       "587",
		Username:   "a@b.com",
		Password:   "12345678",
		AuthMethod: enum.AuthMethodPlain,
		FromEmail:  "a@b.com",
	}
}

func TestValidateCredential_ValidPlain(t *testing.T) {
	result := ValidateCredential(validPlainCredential())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateCredential_ShortPassword(t *testing.T) {
	credential := validPlainCredential()
	credential.Password = "1234567"

	result := ValidateCredential(credential)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "at least 8 characters")
}

func TestValidateCredential_ShortPasswordReportedAlongsideOtherFailures(t *testing.T) {
	// Accumulation: password length is flagged even when other fields are
	// also invalid; nothing short-circuits.
	credential := validPlainCredential()
	credential.Host = ""
	credential.Password = "short"

	result := ValidateCredential(credential)

	assert.False(t, result.IsValid)
	assert.True(t, containsSubstring(result.Errors, "host"))
	assert.True(t, containsSubstring(result.Errors, "at least 8 characters"))
}

func TestValidateCredential_BadUsernameAndFromEmailFlaggedIndependently(t *testing.T) {
	credential := validPlainCredential()
	credential.Username = "not-an-email"
	credential.FromEmail = "not-an-email"

	result := ValidateCredential(credential)

	assert.False(t, result.IsValid)
	assert.True(t, containsSubstring(result.Errors, "username"))
	assert.True(t, containsSubstring(result.Errors, "from email"))
	assert.Len(t, result.Errors, 2)
}

func TestValidateCredential_EverythingWrong(t *testing.T) {
	credential := &models.MailCredential{
		Host:       "",
		Port:       "999999",
		Username:   "bad",
		Password:   "short",
		AuthMethod: enum.AuthMethodPlain,
		FromEmail:  "bad",
	}

	result := ValidateCredential(credential)

	assert.False(t, result.IsValid)
	assert.GreaterOrEqual(t, len(result.Errors), 4)
}

func TestValidateCredential_PortBounds(t *testing.T) {
	tests := []struct {
		name  string
		port  string
		valid bool
	}{
		{"lowest valid port", "1", true},
		{"highest valid port", "65535", true},
		{"zero", "0", false},
		{"too large", "65536", false},
		{"not a number", "abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credential := validPlainCredential()
			credential.Port = tt.port

			result := ValidateCredential(credential)

			assert.Equal(t, tt.valid, result.IsValid)
		})
	}
}

func TestValidateCredential_OAuth2DoesNotRequirePassword(t *testing.T) {
	credential := &models.MailCredential{
		Host:         "smtp.gmail.com",
		Port:         "587",
		Username:     "a@b.com",
		AuthMethod:   enum.AuthMethodOAuth2,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token",
		FromEmail:    "a@b.com",
	}

	result := ValidateCredential(credential)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateCredential_OAuth2MissingFields(t *testing.T) {
	credential := &models.MailCredential{
		Host:       "smtp.gmail.com",
		Port:       "587",
		Username:   "a@b.com",
		AuthMethod: enum.AuthMethodOAuth2,
		FromEmail:  "a@b.com",
	}

	result := ValidateCredential(credential)

	assert.False(t, result.IsValid)
	assert.True(t, containsSubstring(result.Errors, "client ID"))
	assert.True(t, containsSubstring(result.Errors, "client secret"))
	assert.True(t, containsSubstring(result.Errors, "refresh token"))
}

func TestValidateCredential_Nil(t *testing.T) {
	result := ValidateCredential(nil)

	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		message *models.OutgoingMessage
		valid   bool
	}{
		{"complete message", &models.OutgoingMessage{To: "x@y.com", Subject: "hi", Body: "text"}, true},
		{"missing recipient", &models.OutgoingMessage{Subject: "hi", Body: "text"}, false},
		{"bad recipient", &models.OutgoingMessage{To: "nope", Subject: "hi", Body: "text"}, false},
		{"missing subject", &models.OutgoingMessage{To: "x@y.com", Body: "text"}, false},
		{"missing body", &models.OutgoingMessage{To: "x@y.com", Subject: "hi"}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateMessage(tt.message)
			assert.Equal(t, tt.valid, result.IsValid)
		})
	}
}

func containsSubstring(errs []string, substring string) bool {
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e), strings.ToLower(substring)) {
			return true
		}
	}
	return false
}
