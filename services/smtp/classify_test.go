package smtp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		port int
		want FailureKind
	}{
		{
			name: "structured net timeout",
			err:  timeoutError{},
			port: 587,
			want: FailureTimeout,
		},
		{
			name: "timeout by substring",
			err:  fmt.Errorf("connection to smtp.example.com:587 timed out after 20s"),
			port: 587,
			want: FailureTimeout,
		},
		{
			name: "smtp 535 reply",
			err:  fmt.Errorf("SMTP authentication failed: %w", &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}),
			port: 587,
			want: FailureAuthentication,
		},
		{
			name: "gmail app password refusal",
			err:  errors.New("535-5.7.8 Username and Password not accepted"),
			port: 587,
			want: FailureAuthentication,
		},
		{
			name: "unknown authority certificate",
			err:  fmt.Errorf("failed to start TLS: %w", x509.UnknownAuthorityError{}),
			port: 587,
			want: FailureCertificate,
		},
		{
			name: "certificate by substring",
			err:  errors.New("x509: certificate signed by unknown authority"),
			port: 587,
			want: FailureCertificate,
		},
		{
			name: "plaintext greeting on implicit TLS port",
			err:  fmt.Errorf("failed to connect to SMTP server: %w", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}),
			port: 465,
			want: FailureImplicitTLSMismatch,
		},
		{
			name: "handshake mismatch text on implicit TLS port",
			err:  errors.New("tls: first record does not look like a TLS handshake"),
			port: 465,
			want: FailureImplicitTLSMismatch,
		},
		{
			name: "connection refused",
			err:  fmt.Errorf("failed to connect to SMTP server: %w", syscall.ECONNREFUSED),
			port: 587,
			want: FailureConnectionBlocked,
		},
		{
			name: "connection reset by substring",
			err:  errors.New("read tcp 10.0.0.1:44210: connection reset by peer"),
			port: 587,
			want: FailureConnectionBlocked,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "smtp.nowhere.example"},
			port: 587,
			want: FailureDNS,
		},
		{
			name: "anything else",
			err:  errors.New("short write"),
			port: 587,
			want: FailureUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyKind(tt.err, tt.port))
		})
	}
}

func TestClassify_TimeoutBeatsAuthWording(t *testing.T) {
	// Priority order: an error mentioning both a timeout and auth is a
	// timeout.
	err := errors.New("timeout waiting for AUTH response")

	assert.Equal(t, FailureTimeout, classifyKind(err, 587))
}

func TestClassify_ResultShape(t *testing.T) {
	result := Classify(timeoutError{}, 587)

	assert.False(t, result.Success)
	assert.True(t, result.CloudLimitation)
	assert.Contains(t, result.Message, "timed out")
	assert.Contains(t, result.DiagnosticInfo, "i/o timeout") // raw error folded in
}

func TestClassify_ImplicitTLSGuidanceNamesPort587(t *testing.T) {
	err := tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}

	result := Classify(err, 465)

	assert.False(t, result.Success)
	assert.True(t, result.CloudLimitation)
	assert.Contains(t, result.Message, "465")
	assert.Contains(t, result.DiagnosticInfo, "587")
}

func TestClassify_RecordHeaderOffImplicitPortIsNotMismatch(t *testing.T) {
	err := tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}

	assert.NotEqual(t, FailureImplicitTLSMismatch, classifyKind(err, 587))
}

func TestClassify_EveryKindIsCloudLimitation(t *testing.T) {
	errs := []error{
		timeoutError{},
		&textproto.Error{Code: 535, Msg: "denied"},
		x509.UnknownAuthorityError{},
		syscall.ECONNREFUSED,
		&net.DNSError{Err: "no such host"},
		errors.New("unmatched"),
	}

	for _, err := range errs {
		result := Classify(err, 587)
		assert.True(t, result.CloudLimitation, "err %v", err)
		assert.NotEmpty(t, result.Message)
		assert.NotEmpty(t, result.DiagnosticInfo)
	}
}
