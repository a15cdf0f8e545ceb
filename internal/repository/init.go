package repository

import (
	"gorm.io/gorm"

	"github.com/loopcrm/mailbridge/interfaces"
	"github.com/loopcrm/mailbridge/internal/models"
)

type Repositories struct {
	CredentialRepository interfaces.CredentialRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CredentialRepository: NewMailCredentialRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MailCredential{},
	)
}
