package enum

import "strings"

type AuthMethod string

const (
	AuthMethodPlain  AuthMethod = "plain"
	AuthMethodOAuth2 AuthMethod = "oauth2"
)

func (t AuthMethod) String() string {
	return string(t)
}

// MailProvider is the routing capability of a credential. It is resolved once,
// when the credential is validated, and carried through the pipeline so that
// no later stage has to re-inspect the host string.
type MailProvider string

const (
	MailProviderSmtpPlain     MailProvider = "smtp_plain"
	MailProviderGmailOAuth2   MailProvider = "gmail_oauth2"
	MailProviderGenericOAuth2 MailProvider = "generic_oauth2"
)

func (t MailProvider) String() string {
	return string(t)
}

// ResolveMailProvider classifies a credential by auth method and host family.
func ResolveMailProvider(authMethod AuthMethod, host string) MailProvider {
	if authMethod != AuthMethodOAuth2 {
		return MailProviderSmtpPlain
	}
	if strings.Contains(strings.ToLower(host), "gmail") {
		return MailProviderGmailOAuth2
	}
	return MailProviderGenericOAuth2
}
