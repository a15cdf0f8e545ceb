package models

import (
	"time"

	"github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/loopcrm/mailbridge/internal/enum"
)

// MailCredential is a user's stored mail-sending configuration. At most one
// row exists per user; saves upsert by user_id.
type MailCredential struct {
	ID     string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(255);uniqueIndex;not null" json:"userId"`

	// SMTP Configuration
	Host     string `gorm:"column:host;type:varchar(255);not null" json:"host"`
	Port     string `gorm:"column:port;type:varchar(10);not null" json:"port"`
	Username string `gorm:"column:username;type:varchar(255);not null" json:"username"`
	Password string `gorm:"column:password;type:varchar(255)" json:"password,omitempty"`

	// OAuth2 Configuration
	AuthMethod   enum.AuthMethod `gorm:"column:auth_method;type:varchar(20);not null;default:plain" json:"authMethod"`
	ClientID     string          `gorm:"column:client_id;type:varchar(255)" json:"clientId,omitempty"`
	ClientSecret string          `gorm:"column:client_secret;type:varchar(255)" json:"clientSecret,omitempty"`
	RefreshToken string          `gorm:"column:refresh_token;type:text" json:"refreshToken,omitempty"`
	AccessToken  string          `gorm:"column:access_token;type:text" json:"accessToken,omitempty"`
	Scopes       pq.StringArray  `gorm:"column:scopes;type:text[]" json:"scopes,omitempty"`

	// Sender identity
	FromEmail string `gorm:"column:from_email;type:varchar(255);not null" json:"fromEmail"`
	FromName  string `gorm:"column:from_name;type:varchar(255)" json:"fromName"`

	// Standard timestamps
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (MailCredential) TableName() string {
	return "mail_credentials"
}

func (m *MailCredential) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 16)
		if err != nil {
			return err
		}
		m.ID = "cred_" + id
	}
	return nil
}

// Provider resolves the routing capability of this credential.
func (m *MailCredential) Provider() enum.MailProvider {
	return enum.ResolveMailProvider(m.AuthMethod, m.Host)
}

// Redacted returns a read view safe to hand back to callers. Secrets are
// omitted; presence booleans let the UI show what is configured.
func (m *MailCredential) Redacted() *MailCredentialView {
	return &MailCredentialView{
		ID:              m.ID,
		UserID:          m.UserID,
		Host:            m.Host,
		Port:            m.Port,
		Username:        m.Username,
		AuthMethod:      m.AuthMethod,
		ClientID:        m.ClientID,
		FromEmail:       m.FromEmail,
		FromName:        m.FromName,
		Scopes:          m.Scopes,
		HasPassword:     m.Password != "",
		HasRefreshToken: m.RefreshToken != "",
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// MailCredentialView is the secret-free projection of a MailCredential.
type MailCredentialView struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Host            string          `json:"host"`
	Port            string          `json:"port"`
	Username        string          `json:"username"`
	AuthMethod      enum.AuthMethod `json:"authMethod"`
	ClientID        string          `json:"clientId,omitempty"`
	FromEmail       string          `json:"fromEmail"`
	FromName        string          `json:"fromName,omitempty"`
	Scopes          []string        `json:"scopes,omitempty"`
	HasPassword     bool            `json:"hasPassword"`
	HasRefreshToken bool            `json:"hasRefreshToken"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
