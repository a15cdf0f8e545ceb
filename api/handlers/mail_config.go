package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/loopcrm/mailbridge/api/errors"
	"github.com/loopcrm/mailbridge/internal/enum"
	er "github.com/loopcrm/mailbridge/internal/errors"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/services/mailer"
)

type MailHandler struct {
	mailerService *mailer.Service
}

func NewMailHandler(mailerService *mailer.Service) *MailHandler {
	return &MailHandler{mailerService: mailerService}
}

// MailConfigRequest is the API payload for saving or testing a credential.
type MailConfigRequest struct {
	Host         string   `json:"host"`
	Port         string   `json:"port"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	AuthMethod   string   `json:"authMethod"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RefreshToken string   `json:"refreshToken"`
	Scopes       []string `json:"scopes"`
	FromEmail    string   `json:"fromEmail"`
	FromName     string   `json:"fromName"`
}

func (r *MailConfigRequest) toModel() *models.MailCredential {
	authMethod := enum.AuthMethod(r.AuthMethod)
	if authMethod != enum.AuthMethodOAuth2 {
		authMethod = enum.AuthMethodPlain
	}
	return &models.MailCredential{
		Host:         r.Host,
		Port:         r.Port,
		Username:     r.Username,
		Password:     r.Password,
		AuthMethod:   authMethod,
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RefreshToken: r.RefreshToken,
		Scopes:       r.Scopes,
		FromEmail:    r.FromEmail,
		FromName:     r.FromName,
	}
}

// GetConfig returns the caller's stored configuration as a redacted view.
func (h *MailHandler) GetConfig() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.GetConfig", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		view, err := h.mailerService.GetConfig(ctx)
		if err != nil {
			h.respondWithError(c, span, err)
			return
		}
		if view == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "configured": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "configured": true, "config": view})
	}
}

// SaveConfig validates and upserts the caller's configuration.
func (h *MailHandler) SaveConfig() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.SaveConfig", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request MailConfigRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		result, err := h.mailerService.SaveConfig(ctx, request.toModel())
		if err != nil {
			h.respondWithError(c, span, err)
			return
		}
		if !result.IsValid {
			tracing.TraceErr(span, validationErr(result.Errors))
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": result.Errors})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Configuration saved."})
	}
}

// TestConfig runs the live SMTP diagnostic against a (possibly unsaved)
// configuration. Validation failures come back as 400; the test outcome
// itself is always 200, success or not, so the UI can render the guidance.
func (h *MailHandler) TestConfig() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.TestConfig", c.Request.Header)
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request MailConfigRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		result, testResult := h.mailerService.TestConfig(ctx, request.toModel())
		if !result.IsValid {
			tracing.TraceErr(span, validationErr(result.Errors))
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": result.Errors})
			return
		}

		c.JSON(http.StatusOK, testResult)
	}
}

func (h *MailHandler) respondWithError(c *gin.Context, span opentracing.Span, err error) {
	tracing.TraceErr(span, err)
	if errors.Is(err, er.ErrAuthRequired) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed", "details": err.Error()})
}

func validationErr(errs []string) error {
	multi := custom_err.NewMultiErrors()
	for _, e := range errs {
		multi.Add("config", e, nil)
	}
	return multi
}
