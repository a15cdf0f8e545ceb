package config

import (
	"github.com/loopcrm/mailbridge/internal/logger"
	"github.com/loopcrm/mailbridge/internal/tracing"
)

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"12333"`
	APIKey  string `env:"API_KEY,required"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILBRIDGE_POSTGRES_HOST,required"`
	Port            string `env:"MAILBRIDGE_POSTGRES_PORT,required"`
	User            string `env:"MAILBRIDGE_POSTGRES_USER,required"`
	DBName          string `env:"MAILBRIDGE_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILBRIDGE_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILBRIDGE_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILBRIDGE_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILBRIDGE_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILBRIDGE_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILBRIDGE_POSTGRES_SSL_MODE" envDefault:"require"`
}

type GoogleConfig struct {
	TokenEndpoint     string `env:"GOOGLE_TOKEN_ENDPOINT" envDefault:"https://oauth2.googleapis.com/token"`
	GmailSendEndpoint string `env:"GMAIL_SEND_ENDPOINT" envDefault:"https://gmail.googleapis.com/gmail/v1/users/me/messages/send"`
}

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	GoogleConfig   *GoogleConfig
}
