package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmailSyntax(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.co",
		"user+tag@example.io",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmailSyntax(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@nodot",
		"user name@example.com",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmailSyntax(email), email)
	}
}

func TestExtractDomainFromEmail(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomainFromEmail("user@example.com"))
	assert.Equal(t, "example.com", ExtractDomainFromEmail("Name Surname <user@example.com>"))
	assert.Equal(t, "", ExtractDomainFromEmail("not-an-email"))
}

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID("example.com")

	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))

	// Two calls never collide.
	assert.NotEqual(t, id, GenerateMessageID("example.com"))
}
