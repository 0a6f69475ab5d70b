package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig so consumers need not depend on the whole Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Buildmeta.System.Logging
}

// NewBatchConfigProvider extracts *BatchConfig.
func NewBatchConfigProvider(cfg *Config) *BatchConfig {
	return &cfg.Buildmeta.Batch
}

// NewMigrationConfigProvider extracts *MigrationConfig.
func NewMigrationConfigProvider(cfg *Config) *MigrationConfig {
	return &cfg.Buildmeta.Migration
}

// Module provides the configuration and its sections to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewBatchConfigProvider),
	fx.Provide(NewMigrationConfigProvider),
)
