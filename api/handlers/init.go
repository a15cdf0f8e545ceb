package handlers

import (
	"github.com/loopcrm/mailbridge/services"
)

type Handlers struct {
	Mail *MailHandler
}

func InitHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Mail: NewMailHandler(svcs.MailerService),
	}
}
