package services

import (
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/repository"
	"github.com/loopcrm/mailbridge/services/dispatch"
	"github.com/loopcrm/mailbridge/services/mailer"
	"github.com/loopcrm/mailbridge/services/smtp"
	"github.com/loopcrm/mailbridge/services/token"
)

type Services struct {
	TokenManager  *token.Manager
	Dispatcher    *dispatch.Dispatcher
	SMTPTester    *smtp.Tester
	MailerService *mailer.Service
}

// GoogleEndpoints carries the provider URLs so tests and alternate
// deployments can point the token and send calls elsewhere.
type GoogleEndpoints struct {
	TokenEndpoint     string
	GmailSendEndpoint string
}

func InitServices(log logger.Logger, repos *repository.Repositories, google GoogleEndpoints) *Services {
	tokenManager := token.NewManager(repos.CredentialRepository, log, google.TokenEndpoint)
	dispatcher := dispatch.NewDispatcher(tokenManager, log, google.GmailSendEndpoint)
	tester := smtp.NewTester(log)

	return &Services{
		TokenManager:  tokenManager,
		Dispatcher:    dispatcher,
		SMTPTester:    tester,
		MailerService: mailer.NewService(repos, dispatcher, tester, log),
	}
}
