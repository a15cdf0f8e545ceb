package validation

import (
	"fmt"
	"strconv"

	"github.com/loopcrm/mailbridge/internal/enum"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/utils"
)

const minPasswordLength = 8

// Result carries every violated rule, in rule order. Callers display the full
// list at once rather than fixing one field per round trip.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateCredential checks a credential's shape before any network use.
// Pure: no I/O, never fails, all rules are evaluated (no short-circuit).
func ValidateCredential(credential *models.MailCredential) Result {
	errs := []string{}

	if credential == nil {
		return Result{IsValid: false, Errors: []string{"configuration is required"}}
	}

	if credential.Host == "" {
		errs = append(errs, "SMTP host is required")
	}

	port, err := strconv.Atoi(credential.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, "port must be a number between 1 and 65535")
	}

	if credential.Username == "" {
		errs = append(errs, "username is required")
	} else if !utils.IsValidEmailSyntax(credential.Username) {
		errs = append(errs, "username must be a valid email address")
	}

	switch credential.AuthMethod {
	case enum.AuthMethodOAuth2:
		if credential.ClientID == "" {
			errs = append(errs, "OAuth2 client ID is required")
		}
		if credential.ClientSecret == "" {
			errs = append(errs, "OAuth2 client secret is required")
		}
		if credential.RefreshToken == "" {
			errs = append(errs, "OAuth2 refresh token is required")
		}
	default:
		if credential.Password == "" {
			errs = append(errs, "password is required")
		} else if len(credential.Password) < minPasswordLength {
			errs = append(errs, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
	}

	if credential.FromEmail == "" {
		errs = append(errs, "from email is required")
	} else if !utils.IsValidEmailSyntax(credential.FromEmail) {
		errs = append(errs, "from email must be a valid email address")
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateMessage checks an outgoing message payload before dispatch.
func ValidateMessage(message *models.OutgoingMessage) Result {
	errs := []string{}

	if message == nil {
		return Result{IsValid: false, Errors: []string{"message is required"}}
	}

	if message.To == "" {
		errs = append(errs, "recipient address is required")
	} else if !utils.IsValidEmailSyntax(message.To) {
		errs = append(errs, "recipient must be a valid email address")
	}

	if message.Subject == "" {
		errs = append(errs, "subject is required")
	}

	if message.Body == "" {
		errs = append(errs, "body is required")
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}
