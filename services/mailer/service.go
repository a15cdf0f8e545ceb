package mailer

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/loopcrm/mailbridge/internal/enum"
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/repository"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/internal/utils"
	"github.com/loopcrm/mailbridge/services/dispatch"
	"github.com/loopcrm/mailbridge/services/smtp"
	"github.com/loopcrm/mailbridge/services/validation"
)

// SendStatus distinguishes the terminal states of one send attempt. The UI
// needs "not configured" to be separable from "configured but failed" so it
// can fall back to its simulated send.
type SendStatus string

const (
	SendStatusSent          SendStatus = "sent"
	SendStatusFailed        SendStatus = "failed"
	SendStatusNotConfigured SendStatus = "not_configured"
	SendStatusInvalidConfig SendStatus = "invalid_config"
)

// SendOutcome is the uniform result the facade hands back for a send attempt.
type SendOutcome struct {
	Status  SendStatus `json:"status"`
	Message string     `json:"message"`
	ID      string     `json:"id,omitempty"`
	Errors  []string   `json:"errors,omitempty"`
}

// Service is the single entry point the CRM calls for everything mail
// related. Pure orchestration: it never talks to the network itself.
type Service struct {
	repositories *repository.Repositories
	dispatcher   *dispatch.Dispatcher
	tester       *smtp.Tester
	log          logger.Logger
}

func NewService(repos *repository.Repositories, dispatcher *dispatch.Dispatcher, tester *smtp.Tester, log logger.Logger) *Service {
	return &Service{
		repositories: repos,
		dispatcher:   dispatcher,
		tester:       tester,
		log:          log,
	}
}

// SendMessage loads the caller's credential, validates it, dispatches the
// message and normalizes the result. Errors returned here are session or
// store failures; every send-level failure comes back inside the outcome.
func (s *Service) SendMessage(ctx context.Context, message *models.OutgoingMessage) (*SendOutcome, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.SendMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if result := validation.ValidateMessage(message); !result.IsValid {
		return &SendOutcome{
			Status:  SendStatusFailed,
			Message: "Message is incomplete.",
			Errors:  result.Errors,
		}, nil
	}

	userID := utils.GetUserIdFromContext(ctx)
	credential, err := s.repositories.CredentialRepository.GetByUser(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if credential == nil {
		// Normal state. The surrounding UI simulates the send.
		return &SendOutcome{
			Status:  SendStatusNotConfigured,
			Message: "No email configuration saved for this user.",
		}, nil
	}

	if result := validation.ValidateCredential(credential); !result.IsValid {
		// A configured-but-invalid record is a configuration error, never
		// attempted against the network.
		return &SendOutcome{
			Status:  SendStatusInvalidConfig,
			Message: "The saved email configuration is invalid. Review it in settings.",
			Errors:  result.Errors,
		}, nil
	}

	message.From = credential.FromEmail
	message.FromName = credential.FromName

	result := s.dispatcher.Send(ctx, credential.Provider(), credential, message)
	if !result.Success {
		return &SendOutcome{Status: SendStatusFailed, Message: result.Message}, nil
	}
	return &SendOutcome{Status: SendStatusSent, Message: result.Message, ID: result.ID}, nil
}

// SaveConfig validates and upserts the caller's credential. The stored record
// keeps exactly one auth field set, matching the auth method.
func (s *Service) SaveConfig(ctx context.Context, credential *models.MailCredential) (validation.Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.SaveConfig")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	credential.UserID = utils.GetUserIdFromContext(ctx)

	result := validation.ValidateCredential(credential)
	if !result.IsValid {
		return result, nil
	}

	switch credential.AuthMethod {
	case enum.AuthMethodOAuth2:
		credential.Password = ""
	default:
		credential.AuthMethod = enum.AuthMethodPlain
		credential.ClientID = ""
		credential.ClientSecret = ""
		credential.RefreshToken = ""
		credential.AccessToken = ""
		credential.Scopes = nil
	}

	if err := s.repositories.CredentialRepository.Save(ctx, credential); err != nil {
		tracing.TraceErr(span, err)
		return result, err
	}

	s.log.Infof("saved mail credential for user %s (%s)", credential.UserID, credential.AuthMethod)
	return result, nil
}

// TestConfig validates the credential and, if it is well formed, runs the
// live connection diagnostic. The test never runs against an invalid shape.
func (s *Service) TestConfig(ctx context.Context, credential *models.MailCredential) (validation.Result, *smtp.TestResult) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.TestConfig")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	result := validation.ValidateCredential(credential)
	if !result.IsValid {
		return result, nil
	}

	testResult := s.tester.Test(ctx, credential)
	return result, &testResult
}

// GetConfig returns the caller's stored credential as a secret-free read
// view, or nil when nothing is configured.
func (s *Service) GetConfig(ctx context.Context) (*models.MailCredentialView, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.GetConfig")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	userID := utils.GetUserIdFromContext(ctx)
	credential, err := s.repositories.CredentialRepository.GetByUser(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if credential == nil {
		return nil, nil
	}
	return credential.Redacted(), nil
}
