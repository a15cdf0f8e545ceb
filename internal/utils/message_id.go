package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateMessageID creates a unique RFC 5322 Message-ID scoped to the
// sender's domain.
func GenerateMessageID(domain string) string {
	if domain == "" {
		domain = "mailbridge.local"
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	localPart := fmt.Sprintf("%d.%s", time.Now().UnixMicro(), id)
	return fmt.Sprintf("<%s@%s>", localPart, domain)
}
