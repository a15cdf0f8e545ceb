package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMailProvider(t *testing.T) {
	tests := []struct {
		name       string
		authMethod AuthMethod
		host       string
		want       MailProvider
	}{
		{"plain auth always smtp", AuthMethodPlain, "smtp.gmail.com", MailProviderSmtpPlain},
		{"oauth2 gmail host", AuthMethodOAuth2, "smtp.gmail.com", MailProviderGmailOAuth2},
		{"oauth2 gmail mixed case", AuthMethodOAuth2, "SMTP.Gmail.COM", MailProviderGmailOAuth2},
		{"oauth2 other host", AuthMethodOAuth2, "smtp.office365.com", MailProviderGenericOAuth2},
		{"empty auth method treated as plain", AuthMethod(""), "smtp.gmail.com", MailProviderSmtpPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMailProvider(tt.authMethod, tt.host))
		})
	}
}
