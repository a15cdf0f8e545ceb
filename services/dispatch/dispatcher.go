package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/loopcrm/mailbridge/internal/enum"
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/internal/utils"
	"github.com/loopcrm/mailbridge/services/token"
)

const DefaultGmailSendEndpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// SendResult is the normalized outcome of a send attempt. Callers never see
// provider-specific shapes.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// Dispatcher routes a validated credential and message to the matching
// provider path. Only the OAuth2 API route actually transmits; direct SMTP
// sending is a deliberate scope boundary and returns a structured failure.
type Dispatcher struct {
	tokenManager      *token.Manager
	log               logger.Logger
	httpClient        *http.Client
	gmailSendEndpoint string
}

func NewDispatcher(tokenManager *token.Manager, log logger.Logger, gmailSendEndpoint string) *Dispatcher {
	if gmailSendEndpoint == "" {
		gmailSendEndpoint = DefaultGmailSendEndpoint
	}
	return &Dispatcher{
		tokenManager:      tokenManager,
		log:               log,
		httpClient:        &http.Client{Timeout: 20 * time.Second},
		gmailSendEndpoint: gmailSendEndpoint,
	}
}

// Send transmits the message via the provider path selected at validation
// time. Each call is a single attempt; a failure is terminal until the caller
// initiates a new one.
func (d *Dispatcher) Send(ctx context.Context, provider enum.MailProvider, credential *models.MailCredential, message *models.OutgoingMessage) SendResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("provider", provider.String())

	switch provider {
	case enum.MailProviderGmailOAuth2:
		return d.sendViaGmailAPI(ctx, credential, message)
	default:
		// Direct SMTP is only exercised by the diagnostic tester, never by
		// the send path: outbound SMTP ports are blocked in this
		// environment and a half-working path is worse than a clear answer.
		return SendResult{
			Success: false,
			Message: "Direct SMTP sending is not supported in this network environment. " +
				"Configure Gmail with OAuth2, or use an API-based email provider.",
		}
	}
}

type gmailSendRequest struct {
	Raw string `json:"raw"`
}

type gmailSendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (d *Dispatcher) sendViaGmailAPI(ctx context.Context, credential *models.MailCredential, message *models.OutgoingMessage) SendResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.sendViaGmailAPI")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	accessToken, err := d.tokenManager.EnsureAccessToken(ctx, credential)
	if err != nil {
		tracing.TraceErr(span, err)
		return SendResult{
			Success: false,
			Message: fmt.Sprintf("Could not obtain a Google access token: %v", err),
		}
	}

	raw := base64.RawURLEncoding.EncodeToString(buildRawMessage(credential, message))

	payload, err := json.Marshal(gmailSendRequest{Raw: raw})
	if err != nil {
		tracing.TraceErr(span, err)
		return SendResult{Success: false, Message: fmt.Sprintf("Failed to encode message: %v", err)}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.gmailSendEndpoint, bytes.NewReader(payload))
	if err != nil {
		tracing.TraceErr(span, err)
		return SendResult{Success: false, Message: fmt.Sprintf("Failed to build send request: %v", err)}
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Content-Type", "application/json")
	request = tracing.InjectSpanContextIntoHTTPRequest(request, span)

	response, err := d.httpClient.Do(request)
	if err != nil {
		tracing.TraceErr(span, err)
		return SendResult{Success: false, Message: fmt.Sprintf("Gmail API unreachable: %v", err)}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return SendResult{Success: false, Message: fmt.Sprintf("Failed to read Gmail API response: %v", err)}
	}

	var sendResp gmailSendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		sendResp = gmailSendResponse{}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 || sendResp.Error != nil {
		providerText := string(body)
		if sendResp.Error != nil && sendResp.Error.Message != "" {
			providerText = sendResp.Error.Message
		}
		err := fmt.Errorf("gmail send failed with status %d: %s", response.StatusCode, providerText)
		tracing.TraceErr(span, err)
		return SendResult{
			Success: false,
			Message: fmt.Sprintf("Gmail refused the message: %s", providerText),
		}
	}

	d.log.Infof("sent message %s to %s via Gmail API", sendResp.ID, message.To)
	return SendResult{
		Success: true,
		Message: "Email sent successfully.",
		ID:      sendResp.ID,
	}
}

// buildRawMessage assembles the RFC 2822 message the Gmail API expects inside
// its base64url raw field.
func buildRawMessage(credential *models.MailCredential, message *models.OutgoingMessage) []byte {
	from := credential.FromEmail
	if credential.FromName != "" {
		from = fmt.Sprintf("%s <%s>", credential.FromName, credential.FromEmail)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", message.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", message.Subject)
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", utils.GenerateMessageID(utils.ExtractDomainFromEmail(credential.FromEmail)))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(message.Body)
	return buf.Bytes()
}
