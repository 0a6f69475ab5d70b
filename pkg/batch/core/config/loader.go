package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

const (
	moduleName = "config"
	// EnvPrefix prefixes every environment override, e.g. BUILDMETA_BATCH_GRID_SIZE.
	EnvPrefix = "BUILDMETA_"
)

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// LoadConfig builds the configuration in three layers: defaults from NewConfig,
// the embedded YAML, then BUILDMETA_* environment variables.
// A .env file is loaded first when present; a missing file is not an error.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	cfg := NewConfig()

	// yaml.v3 leaves fields absent from the document untouched, so defaults survive.
	if len(embeddedConfig) > 0 {
		if err := yaml.Unmarshal(embeddedConfig, cfg); err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
		}
	}
	if cfg.Buildmeta.Databases == nil {
		cfg.Buildmeta.Databases = map[string]interface{}{}
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), EnvPrefix); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}
	if err := cfg.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false, false)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads *Config and applies the log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Buildmeta.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Buildmeta.System.Logging.Level)
	return cfg, nil
}

// loadStructFromEnv walks the struct and overrides every yaml-tagged field for which
// PREFIX + upper(tag) is set. The top-level "buildmeta" key is folded into the prefix.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		if fieldType.Name == "Buildmeta" {
			if err := loadStructFromEnv(field, prefix); err != nil {
				return err
			}
			continue
		}

		envVarName := strings.ToUpper(prefix + yamlTag)
		switch field.Kind() {
		case reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case reflect.Map:
			if field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.Interface {
				loadMapFromEnv(field, envVarName+"_")
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapFromEnv fills a map[string]interface{} of named sections from variables such as
// BUILDMETA_DATABASE_MAIN_HOST=db, which sets database.main.host. Everything after the
// section name is taken whole as the field name.
func loadMapFromEnv(mapField reflect.Value, prefix string) {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := strings.SplitN(parts[0], "_", 2)
		if len(keyAndField) != 2 || keyAndField[0] == "" || keyAndField[1] == "" {
			continue
		}
		mapKey := strings.ToLower(keyAndField[0])
		fieldName := strings.ToLower(keyAndField[1])

		section := map[string]interface{}{}
		if existing := mapField.MapIndex(reflect.ValueOf(mapKey)); existing.IsValid() {
			if m, ok := existing.Interface().(map[string]interface{}); ok {
				section = m
			}
		}
		section[fieldName] = parts[1]
		mapField.SetMapIndex(reflect.ValueOf(mapKey), reflect.ValueOf(section))
	}
}

// setField sets a scalar field from its string form.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
