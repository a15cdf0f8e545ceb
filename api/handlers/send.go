package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	custom_err "github.com/loopcrm/mailbridge/api/errors"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
)

// SendEmailRequest represents the API request for sending an email
type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send handles the HTTP request to send a new email through the caller's
// configured provider.
func (h *MailHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.Send", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request SendEmailRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		if errs := validateSendRequest(&request); errs.HasErrors() {
			tracing.TraceErr(span, errs)
			c.JSON(http.StatusBadRequest, errs)
			return
		}

		outcome, err := h.mailerService.SendMessage(ctx, &models.OutgoingMessage{
			To:      request.To,
			Subject: request.Subject,
			Body:    request.Body,
		})
		if err != nil {
			h.respondWithError(c, span, err)
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

func validateSendRequest(request *SendEmailRequest) *custom_err.MultiErrors {
	errs := custom_err.NewMultiErrors()

	if request.To == "" {
		errs.Add("to", "please provide a valid to address", errors.New("to is empty"))
	}
	if request.Subject == "" {
		errs.Add("subject", "please provide an email subject", errors.New("subject is empty"))
	}
	if request.Body == "" {
		errs.Add("body", "please provide an email body", errors.New("body is empty"))
	}

	return errs
}
