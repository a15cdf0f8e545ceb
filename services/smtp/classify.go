package smtp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"syscall"
)

// FailureKind identifies one class of connection-test failure. Classification
// is ordered: each kind is tested against the raw error in the sequence below,
// the first match wins, and anything unmatched falls through to
// FailureUnclassified. Callers rely on getting a specific kind with actionable
// guidance for every common failure, never a bare error.
type FailureKind string

const (
	FailureTimeout             FailureKind = "connection_timeout"
	FailureAuthentication      FailureKind = "authentication_failed"
	FailureCertificate         FailureKind = "certificate_error"
	FailureConnectionBlocked   FailureKind = "connection_refused_or_blocked"
	FailureDNS                 FailureKind = "dns_failure"
	FailureImplicitTLSMismatch FailureKind = "implicit_tls_incompatibility"
	FailureUnclassified        FailureKind = "unclassified"
)

// Classify maps a raw connection or send error to a TestResult with a
// user-facing message and extended troubleshooting text. Structured error
// types are inspected first; substring matching is the fallback for opaque
// errors. Every failure is flagged as a cloud limitation because the service
// runs inside a network-restricted environment where direct SMTP is commonly
// blocked regardless of configuration.
func Classify(err error, port int) TestResult {
	kind := classifyKind(err, port)
	message, diagnostic := failureText(kind, err)
	return TestResult{
		Success:         false,
		Message:         message,
		DiagnosticInfo:  diagnostic,
		CloudLimitation: true,
	}
}

func classifyKind(err error, port int) FailureKind {
	if err == nil {
		return FailureUnclassified
	}

	raw := strings.ToLower(err.Error())

	// 1. Timeouts, structured first.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if containsAny(raw, "timed out", "timeout", "deadline exceeded") {
		return FailureTimeout
	}

	// 2. Authentication. SMTP replies 530/534/535 are auth rejections; 534
	// is Gmail's refusal of password auth on accounts with 2FA.
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return FailureAuthentication
		}
	}
	if containsAny(raw, "authentication failed", "auth failed", "username and password not accepted", "invalid credentials", "invalid login", "535 ", "534 ") {
		return FailureAuthentication
	}

	// 3. Certificate problems.
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) || errors.As(err, &certInvalid) {
		return FailureCertificate
	}
	if containsAny(raw, "certificate", "x509") {
		return FailureCertificate
	}

	// 4. Implicit-TLS incompatibility. A plaintext or garbled server hello on
	// the implicit-TLS port means the peer did not speak TLS from byte one.
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) && port == implicitTLSPort {
		return FailureImplicitTLSMismatch
	}
	if port == implicitTLSPort && containsAny(raw, "first record does not look like a tls handshake", "handshake failure", "wrong version number") {
		return FailureImplicitTLSMismatch
	}

	// 5. Refused or filtered connections.
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ENETUNREACH) {
		return FailureConnectionBlocked
	}
	if containsAny(raw, "connection refused", "connection reset", "network is unreachable", "broken pipe") {
		return FailureConnectionBlocked
	}

	// 6. DNS.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}
	if containsAny(raw, "no such host", "server misbehaving", "name resolution") {
		return FailureDNS
	}

	return FailureUnclassified
}

func failureText(kind FailureKind, err error) (message string, diagnostic string) {
	// Raw error text is always folded into the diagnostic for debuggability,
	// never shown as the primary message.
	rawText := ""
	if err != nil {
		rawText = err.Error()
	}

	switch kind {
	case FailureTimeout:
		return "SMTP connection timed out. The mail server did not respond in time.",
			fmt.Sprintf("Outbound SMTP connections are often throttled or blocked in hosted network environments. "+
				"Consider a dedicated email API provider (for example Resend, SendGrid or Postmark) instead of direct SMTP. "+
				"Underlying error: %s", rawText)

	case FailureAuthentication:
		return "SMTP authentication failed. Check your username and password.",
			fmt.Sprintf("Providers with two-factor authentication reject normal passwords over SMTP; "+
				"use an app password, or switch to OAuth2 if your provider supports it. "+
				"Underlying error: %s", rawText)

	case FailureCertificate:
		return "TLS/SSL certificate error while securing the connection.",
			fmt.Sprintf("The server presented a certificate that could not be verified. "+
				"Check that the host name matches the certificate and that the port expects TLS. "+
				"Underlying error: %s", rawText)

	case FailureImplicitTLSMismatch:
		return "Implicit TLS on port 465 failed with this mail server.",
			fmt.Sprintf("Port 465 expects TLS from the first byte and this server did not provide it. "+
				"Switch the port to 587, which negotiates TLS via STARTTLS. "+
				"Underlying error: %s", rawText)

	case FailureConnectionBlocked:
		return "Connection failed. Outbound SMTP is likely blocked in this network environment.",
			fmt.Sprintf("Many hosted environments block outbound SMTP ports entirely. "+
				"An API-based email provider avoids this restriction. "+
				"Underlying error: %s", rawText)

	case FailureDNS:
		return "SMTP hostname not found.",
			fmt.Sprintf("The configured host could not be resolved. Check the SMTP host value for typos. "+
				"Underlying error: %s", rawText)

	default:
		return "Could not reach the mail server from this environment.",
			fmt.Sprintf("This environment restricts outbound network access; direct SMTP frequently fails here "+
				"even with a correct configuration. An API-based email provider is the reliable alternative. "+
				"Underlying error: %s", rawText)
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
