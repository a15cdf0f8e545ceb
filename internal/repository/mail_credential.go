package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/loopcrm/mailbridge/interfaces"
	er "github.com/loopcrm/mailbridge/internal/errors"
	"github.com/loopcrm/mailbridge/internal/models"
	"github.com/loopcrm/mailbridge/internal/tracing"
	"github.com/loopcrm/mailbridge/internal/utils"
)

type mailCredentialRepository struct {
	db *gorm.DB
}

func NewMailCredentialRepository(db *gorm.DB) interfaces.CredentialRepository {
	return &mailCredentialRepository{db: db}
}

func (r *mailCredentialRepository) GetByUser(ctx context.Context, userID string) (*models.MailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.GetByUser")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if err := utils.ValidateSession(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if userID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return nil, ErrInvalidInput
	}

	var credential models.MailCredential
	err := r.db.WithContext(ctx).First(&credential, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// never-configured is a normal state
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &credential, nil
}

func (r *mailCredentialRepository) Save(ctx context.Context, credential *models.MailCredential) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.Save")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if err := utils.ValidateSession(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if credential == nil || credential.UserID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}

	var existing models.MailCredential
	err := r.db.WithContext(ctx).First(&existing, "user_id = ?", credential.UserID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		tracing.TraceErr(span, err)
		return err
	}

	if err == nil {
		credential.ID = existing.ID
		credential.CreatedAt = existing.CreatedAt
	}
	credential.UpdatedAt = utils.Now()

	if err := r.db.WithContext(ctx).Save(credential).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *mailCredentialRepository) PatchAccessToken(ctx context.Context, userID string, accessToken string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.PatchAccessToken")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if err := utils.ValidateSession(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if userID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).
		Model(&models.MailCredential{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"updated_at":   utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		tracing.TraceErr(span, er.ErrCredentialNotFound)
		return er.ErrCredentialNotFound
	}
	return nil
}
