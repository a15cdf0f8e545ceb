package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/internal/utils"
)

const (
	// Hard ceilings. The hosting environment kills long-lived serverless
	// invocations, so a hung SMTP dial must never outlive them.
	DefaultConnectTimeout = 20 * time.Second
	DefaultSendTimeout    = 20 * time.Second

	implicitTLSPort = 465
)

// TestResult is the outcome of a connection test, shaped for direct display.
type TestResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	DiagnosticInfo  string `json:"diagnosticInfo,omitempty"`
	CloudLimitation bool   `json:"cloudLimitation"`
}

// Tester verifies real SMTP connectivity for a credential by opening a
// secured connection and delivering one test message back to the configured
// username. It is a diagnostic tool, not part of the send path.
type Tester struct {
	log            logger.Logger
	connectTimeout time.Duration
	sendTimeout    time.Duration
}

func NewTester(log logger.Logger) *Tester {
	return &Tester{
		log:            log,
		connectTimeout: DefaultConnectTimeout,
		sendTimeout:    DefaultSendTimeout,
	}
}

// WithTimeouts overrides the connect and send ceilings.
func (t *Tester) WithTimeouts(connect, send time.Duration) *Tester {
	t.connectTimeout = connect
	t.sendTimeout = send
	return t
}

// Test runs the full diagnostic: connect, authenticate, send a test message,
// close. Invoked only after the credential passed shape validation. Every
// failure is classified into actionable guidance; the method never hangs past
// its ceilings and never returns a bare error.
func (t *Tester) Test(ctx context.Context, credential *models.MailCredential) TestResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Tester.Test")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("host", credential.Host, "port", credential.Port, "username", credential.Username)

	addr := net.JoinHostPort(credential.Host, credential.Port)
	port := portNumber(credential.Port)

	client, err := t.connectWithTimeout(addr, credential, port)
	if err != nil {
		tracing.TraceErr(span, err)
		return Classify(err, port)
	}
	// Cleanup on every exit path, including a failed send.
	defer client.Close()

	if err := t.sendWithTimeout(client, credential); err != nil {
		tracing.TraceErr(span, err)
		return Classify(err, port)
	}

	t.log.Infof("SMTP test message delivered to %s via %s", credential.Username, addr)
	return TestResult{
		Success: true,
		Message: fmt.Sprintf("Test email sent successfully to %s. Check your inbox to confirm delivery.", credential.Username),
	}
}

// connectWithTimeout races the connect+auth sequence against the connect
// ceiling. On expiry the in-flight attempt is abandoned, not cancelled at the
// socket level, and its connection is closed whenever it finally resolves.
func (t *Tester) connectWithTimeout(addr string, credential *models.MailCredential, port int) (*smtp.Client, error) {
	type connectOutcome struct {
		client *smtp.Client
		err    error
	}

	done := make(chan connectOutcome, 1)
	go func() {
		client, err := t.connect(addr, credential, port)
		done <- connectOutcome{client: client, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome.client, outcome.err
	case <-time.After(t.connectTimeout):
		go func() {
			if outcome := <-done; outcome.client != nil {
				outcome.client.Close()
			}
		}()
		return nil, fmt.Errorf("connection to %s timed out after %s", addr, t.connectTimeout)
	}
}

// connect opens the secured connection and authenticates. Port 465 uses
// implicit TLS, everything else dials plain and upgrades with STARTTLS.
func (t *Tester) connect(addr string, credential *models.MailCredential, port int) (*smtp.Client, error) {
	tlsConfig := &tls.Config{
		ServerName: credential.Host,
	}

	var client *smtp.Client
	if port == implicitTLSPort {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client, err = smtp.NewClient(conn, credential.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client, err = smtp.NewClient(conn, credential.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	auth := smtp.PlainAuth("", credential.Username, credential.Password, credential.Host)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("SMTP authentication failed: %w", err)
	}

	return client, nil
}

// sendWithTimeout races the test-message delivery against the send ceiling,
// independently of the time the connect phase used.
func (t *Tester) sendWithTimeout(client *smtp.Client, credential *models.MailCredential) error {
	done := make(chan error, 1)
	go func() {
		done <- t.sendTestMessage(client, credential)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(t.sendTimeout):
		return fmt.Errorf("sending the test message timed out after %s", t.sendTimeout)
	}
}

// sendTestMessage delivers one message to the configured username echoing the
// configuration back for verification. The password is never echoed.
func (t *Tester) sendTestMessage(client *smtp.Client, credential *models.MailCredential) error {
	if err := client.Mail(credential.FromEmail); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(credential.Username); err != nil {
		return fmt.Errorf("SMTP RCPT command failed for %s: %w", credential.Username, err)
	}

	dataWriter, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}

	if _, err = dataWriter.Write([]byte(testMessageBody(credential))); err != nil {
		return fmt.Errorf("failed to write test message: %w", err)
	}
	if err = dataWriter.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func testMessageBody(credential *models.MailCredential) string {
	from := credential.FromEmail
	if credential.FromName != "" {
		from = fmt.Sprintf("%s <%s>", credential.FromName, credential.FromEmail)
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: SMTP configuration test\r\nMessage-ID: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n",
		from,
		credential.Username,
		utils.GenerateMessageID(utils.ExtractDomainFromEmail(credential.FromEmail)),
		time.Now().Format(time.RFC1123Z),
	)

	body := fmt.Sprintf(
		"Your SMTP configuration works.\r\n\r\n"+
			"Settings used for this test:\r\n"+
			"  Host:       %s\r\n"+
			"  Port:       %s\r\n"+
			"  Username:   %s\r\n"+
			"  From email: %s\r\n"+
			"  From name:  %s\r\n\r\n"+
			"If this message reached the wrong inbox, double-check the username field.\r\n",
		credential.Host,
		credential.Port,
		credential.Username,
		credential.FromEmail,
		credential.FromName,
	)

	return headers + body
}

func portNumber(port string) int {
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}
