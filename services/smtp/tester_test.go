package smtp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcrm/mailbridge/internal/enum"
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func localCredential(port int) *models.MailCredential {
	return &models.MailCredential{
		UserID:     "user-1",
		Host:       "127.0.0.1",
		Port:       strconv.Itoa(port),
		Username:   "a@b.com",
		Password:   "12345678",
		AuthMethod: enum.AuthMethodPlain,
		FromEmail:  "a@b.com",
		FromName:   "Test Sender",
	}
}

func TestTester_ConnectTimeoutNeverHangs(t *testing.T) {
	// A server that accepts and never sends a greeting keeps the SMTP
	// client blocked; the tester must give up at its ceiling.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	tester := NewTester(getLogger()).WithTimeouts(200*time.Millisecond, 200*time.Millisecond)

	start := time.Now()
	result := tester.Test(context.Background(), localCredential(port))
	elapsed := time.Since(start)

	assert.False(t, result.Success)
	assert.True(t, result.CloudLimitation)
	assert.Contains(t, result.Message, "timed out")
	assert.Less(t, elapsed, 2*time.Second)
}

func TestTester_ConnectionRefused(t *testing.T) {
	// Grab a free port, then close the listener so nothing is there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	tester := NewTester(getLogger()).WithTimeouts(2*time.Second, 2*time.Second)

	result := tester.Test(context.Background(), localCredential(port))

	assert.False(t, result.Success)
	assert.True(t, result.CloudLimitation)
	assert.Contains(t, result.Message, "blocked in this network environment")
}

func TestTestMessageBody_EchoesConfigurationWithoutSecrets(t *testing.T) {
	credential := localCredential(587)
	credential.Password = "super-secret-password"

	body := testMessageBody(credential)

	assert.Contains(t, body, credential.Host)
	assert.Contains(t, body, credential.Port)
	assert.Contains(t, body, credential.Username)
	assert.Contains(t, body, credential.FromEmail)
	assert.Contains(t, body, credential.FromName)
	assert.NotContains(t, body, credential.Password)
}

func TestTestMessageBody_AddressedToConfiguredUsername(t *testing.T) {
	credential := localCredential(587)
	credential.Username = "inbox-owner@b.com"

	body := testMessageBody(credential)

	assert.Contains(t, body, "To: inbox-owner@b.com")
	assert.Contains(t, body, "From: Test Sender <a@b.com>")
}
