package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/dto"
	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

type configurationRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
}

type allowedConfiguration struct {
	Key         string
	Type        models.ConfigurationType
	Description string
}

// Shared settings consumed by the external certificate renderer.
var allowedConfigurationKeys = []string{
	"institution_name",
	"coordinator_name",
	"coordinator_title",
	"certificate_footer_note",
}

var allowedConfigurations = map[string]allowedConfiguration{
	"institution_name": {
		Key:         "institution_name",
		Type:        models.ConfigurationTypeString,
		Description: "Institution name printed on generated documents",
	},
	"coordinator_name": {
		Key:         "coordinator_name",
		Type:        models.ConfigurationTypeString,
		Description: "Internship coordinator name used for signatures",
	},
	"coordinator_title": {
		Key:         "coordinator_title",
		Type:        models.ConfigurationTypeString,
		Description: "Coordinator title shown under the signature line",
	},
	"certificate_footer_note": {
		Key:         "certificate_footer_note",
		Type:        models.ConfigurationTypeString,
		Description: "Optional footer note appended to certificates",
	},
}

// ConfigurationService orchestrates the shared-settings key/value store.
type ConfigurationService struct {
	repo   configurationRepository
	audit  auditLogger
	logger *zap.Logger
}

// NewConfigurationService constructs a ConfigurationService.
func NewConfigurationService(repo configurationRepository, audit auditLogger, logger *zap.Logger) *ConfigurationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationService{repo: repo, audit: audit, logger: logger}
}

// List returns configuration items scoped to allowed keys.
func (s *ConfigurationService) List(ctx context.Context) ([]dto.ConfigurationItem, error) {
	rows, err := s.repo.ListByKeys(ctx, allowedConfigurationKeys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configurations")
	}
	existing := make(map[string]models.Configuration, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.ConfigurationItem, 0, len(allowedConfigurationKeys))
	for _, key := range allowedConfigurationKeys {
		meta := allowedConfigurations[key]
		item := dto.ConfigurationItem{
			Key:         key,
			Type:        string(meta.Type),
			Description: meta.Description,
		}
		if row, ok := existing[key]; ok {
			item.Value = row.Value
			if row.Description != nil && *row.Description != "" {
				item.Description = *row.Description
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Get retrieves a single configuration.
func (s *ConfigurationService) Get(ctx context.Context, key string) (*dto.ConfigurationItem, error) {
	meta, err := requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	cfg, err := s.repo.Get(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return &dto.ConfigurationItem{
				Key:         key,
				Type:        string(meta.Type),
				Description: meta.Description,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get configuration")
	}
	description := meta.Description
	if cfg.Description != nil && *cfg.Description != "" {
		description = *cfg.Description
	}
	return &dto.ConfigurationItem{
		Key:         cfg.Key,
		Value:       cfg.Value,
		Type:        string(cfg.Type),
		Description: description,
	}, nil
}

// Update upserts a configuration entry.
func (s *ConfigurationService) Update(ctx context.Context, key, value, actorID string) (*dto.ConfigurationItem, error) {
	meta, err := requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "value is required")
	}

	prev, err := s.repo.Get(ctx, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch configuration")
	}

	cfg := &models.Configuration{
		Key:         key,
		Value:       value,
		Type:        meta.Type,
		Description: strPtr(meta.Description),
	}
	if actorID != "" {
		cfg.UpdatedBy = &actorID
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update configuration")
	}

	s.emitAudit(ctx, actorID, key, prevValue(prev), value)

	return &dto.ConfigurationItem{
		Key:         key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
	}, nil
}

func (s *ConfigurationService) emitAudit(ctx context.Context, actorID, key, oldValue, newValue string) {
	if s.audit == nil {
		return
	}
	oldPayload, _ := json.Marshal(map[string]string{"value": oldValue})
	newPayload, _ := json.Marshal(map[string]string{"value": newValue})
	log := &models.AuditLog{
		Action:     models.AuditActionSettingUpdate,
		Resource:   "configuration",
		ResourceID: &key,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  "system",
		UserAgent:  "configuration-service",
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func requireAllowedKey(key string) (allowedConfiguration, error) {
	meta, ok := allowedConfigurations[key]
	if !ok {
		return allowedConfiguration{}, appErrors.Clone(appErrors.ErrValidation, "unsupported configuration key")
	}
	return meta, nil
}

func prevValue(cfg *models.Configuration) string {
	if cfg == nil {
		return ""
	}
	return cfg.Value
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
