package step

import (
	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// DefinitionBuilder derives content-addressed job definitions from presenters.
type DefinitionBuilder struct{}

// NewDefinitionBuilder creates a new instance of [DefinitionBuilder].
func NewDefinitionBuilder() *DefinitionBuilder {
	return &DefinitionBuilder{}
}

// Config assembles the definition config of a presenter.
//
//   - options: metadata config_options, else the legacy options column, else {}
//   - yaml_variables: non-empty metadata config_variables, else the normalized legacy
//     yaml_variables column, else []
//   - id_tokens, secrets: metadata values when not empty
//   - interruptible: metadata value when not null
//   - tag_list, run_steps: when not empty
func (b *DefinitionBuilder) Config(view *model.JobPresenter) (model.DefinitionConfig, error) {
	md := view.Metadata
	cfg := model.DefinitionConfig{}

	var options interface{}
	if md != nil && !md.ConfigOptions.IsNull() {
		decoded, err := md.ConfigOptions.Decode()
		if err != nil {
			return nil, err
		}
		options = decoded
	} else {
		options = legacyColumn(view.Build, "options", view.Build.Options)
	}
	if options == nil {
		options = map[string]interface{}{}
	}
	cfg[model.ConfigKeyOptions] = options

	var variables interface{}
	if md != nil && !md.ConfigVariables.IsEmpty() {
		decoded, err := md.ConfigVariables.Decode()
		if err != nil {
			return nil, err
		}
		variables = decoded
	} else if normalized := normalizeVariables(legacyColumn(view.Build, "yaml_variables", view.Build.YamlVariables)); len(normalized) > 0 {
		variables = normalized
	}
	if variables == nil {
		variables = []interface{}{}
	}
	cfg[model.ConfigKeyYamlVariables] = variables

	if md != nil {
		for key, raw := range map[string]entity.JSONB{model.ConfigKeyIDTokens: md.IDTokens, model.ConfigKeySecrets: md.Secrets} {
			if raw.IsEmpty() {
				continue
			}
			decoded, err := raw.Decode()
			if err != nil {
				return nil, err
			}
			cfg[key] = decoded
		}
		if md.Interruptible != nil {
			cfg[model.ConfigKeyInterruptible] = *md.Interruptible
		}
	}

	if len(view.TagList) > 0 {
		cfg[model.ConfigKeyTagList] = view.TagList
	}
	if !view.RunSteps.IsEmpty() {
		decoded, err := view.RunSteps.Decode()
		if err != nil {
			return nil, err
		}
		cfg[model.ConfigKeyRunSteps] = decoded
	}
	return cfg, nil
}

// Build derives the candidate definition of a presenter and stores it in view.Candidate.
func (b *DefinitionBuilder) Build(view *model.JobPresenter) (*entity.JobDefinition, error) {
	cfg, err := b.Config(view)
	if err != nil {
		return nil, exception.NewBatchError("definition_builder", "failed to build definition config", err, false, false)
	}
	canonical, err := cfg.Canonical()
	if err != nil {
		return nil, exception.NewBatchError("definition_builder", "failed to serialize definition config", err, false, false)
	}
	def := &entity.JobDefinition{
		ProjectID:     view.Build.ProjectID,
		PartitionID:   view.Build.PartitionID,
		Checksum:      model.ChecksumOf(canonical),
		Config:        entity.JSONB(canonical),
		Interruptible: cfg.Interruptible(),
	}
	view.Candidate = def
	return def, nil
}

// BuildAll builds a candidate for every presenter and returns one candidate per global
// identifier, in first-seen order.
func (b *DefinitionBuilder) BuildAll(views []*model.JobPresenter) ([]entity.JobDefinition, error) {
	seen := make(map[entity.GlobalIdentifier]struct{}, len(views))
	unique := make([]entity.JobDefinition, 0, len(views))
	for _, view := range views {
		def, err := b.Build(view)
		if err != nil {
			return nil, err
		}
		id := def.GlobalIdentifier()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, *def)
	}
	return unique, nil
}

// legacyColumn decodes a legacy serialized column. Unreadable values count as absent.
func legacyColumn(build entity.Build, column string, text *string) interface{} {
	if text == nil {
		return nil
	}
	v, err := decodeLegacy(*text)
	if err != nil {
		logger.Warnf("definition_builder: ignoring unreadable %s of build %d: %v", column, build.ID, err)
		return nil
	}
	return v
}
