package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// GormSettingsRepository implements SettingsRepository.
type GormSettingsRepository struct {
	conn database.DBConnection
}

// NewGormSettingsRepository creates a new instance of [GormSettingsRepository].
func NewGormSettingsRepository(conn database.DBConnection) *GormSettingsRepository {
	return &GormSettingsRepository{conn: conn}
}

// ArchiveBuildsInSeconds reads the setting from the most recent settings row. A missing
// row or table yields nil.
func (r *GormSettingsRepository) ArchiveBuildsInSeconds(ctx context.Context) (*int64, error) {
	var setting entity.ApplicationSetting
	err := r.conn.GormDB().WithContext(ctx).
		Select("id", "archive_builds_in_seconds").
		Order("id DESC").
		Take(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil && r.conn.IsTableNotExistError(err):
		logger.Debugf("application_settings does not exist, no archive window.")
		return nil, nil
	case err != nil:
		return nil, exception.NewStoreError("settings_repository", "failed to read application settings", err)
	}
	return setting.ArchiveBuildsInSeconds, nil
}

var _ SettingsRepository = (*GormSettingsRepository)(nil)
