package step

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func presenter(id int64, md *entity.BuildMetadata, tags ...string) *model.JobPresenter {
	view := model.NewJobPresenter(entity.Build{ID: id, PartitionID: 5, ProjectID: 42})
	if md != nil {
		md.BuildID, md.PartitionID = id, 5
	}
	view.Metadata = md
	if len(tags) > 0 {
		view.TagList = tags
	}
	return view
}

func TestDefinitionBuilder_TagListChangesChecksum(t *testing.T) {
	b := NewDefinitionBuilder()
	view101 := presenter(101, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"interruptible": true}`)})
	view102 := presenter(102, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"interruptible": true}`)}, "docker")

	defs, err := b.BuildAll([]*model.JobPresenter{view101, view102})

	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.NotEqual(t, defs[0].Checksum, defs[1].Checksum)
	assert.Equal(t, `{"options":{"interruptible":true},"yaml_variables":[]}`, string(defs[0].Config))
	assert.Equal(t, `{"options":{"interruptible":true},"tag_list":["docker"],"yaml_variables":[]}`, string(defs[1].Config))
	assert.Equal(t, model.ChecksumOf(defs[0].Config), defs[0].Checksum)
	require.NotNil(t, view101.Candidate)
	assert.Equal(t, defs[1].GlobalIdentifier(), view102.Candidate.GlobalIdentifier())
}

func TestDefinitionBuilder_ChecksumIgnoresKeyOrder(t *testing.T) {
	b := NewDefinitionBuilder()
	a, err := b.Build(presenter(1, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"ruby","script":["rake"],"cache":{"key":"k","paths":["v"]}}`)}))
	require.NoError(t, err)
	c, err := b.Build(presenter(2, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"cache":{"paths":["v"],"key":"k"},"script":["rake"],"image":"ruby"}`)}))
	require.NoError(t, err)

	assert.Equal(t, a.Checksum, c.Checksum)
	assert.Equal(t, a.GlobalIdentifier(), c.GlobalIdentifier())
}

func TestDefinitionBuilder_Precedence(t *testing.T) {
	b := NewDefinitionBuilder()

	t.Run("MetadataOverLegacyColumns", func(t *testing.T) {
		view := presenter(1, &entity.BuildMetadata{
			ConfigOptions:   entity.JSONB(`{"image":"from-metadata"}`),
			ConfigVariables: entity.JSONB(`[{"key":"A","value":"1"}]`),
		})
		view.Build.Options = strPtr("---\n:image: from-legacy\n")
		view.Build.YamlVariables = strPtr("---\n- :key: B\n  :value: 2\n")

		cfg, err := b.Config(view)
		require.NoError(t, err)
		canonical, err := cfg.Canonical()
		require.NoError(t, err)
		assert.Equal(t, `{"options":{"image":"from-metadata"},"yaml_variables":[{"key":"A","value":"1"}]}`, string(canonical))
	})

	t.Run("LegacyColumnsWithoutMetadata", func(t *testing.T) {
		view := presenter(1, nil)
		view.Build.Options = strPtr("---\n:image: from-legacy\n")
		view.Build.YamlVariables = strPtr("---\n- :key: B\n  :value: 2\n")

		cfg, err := b.Config(view)
		require.NoError(t, err)
		canonical, err := cfg.Canonical()
		require.NoError(t, err)
		assert.Equal(t, `{"options":{"image":"from-legacy"},"yaml_variables":[{"key":"B","value":"2"}]}`, string(canonical))
	})

	t.Run("EmptyMetadataVariablesFallBackToLegacy", func(t *testing.T) {
		view := presenter(1, &entity.BuildMetadata{ConfigVariables: entity.JSONB(`[]`)})
		view.Build.YamlVariables = strPtr("---\n- :key: B\n  :value: x\n")

		cfg, err := b.Config(view)
		require.NoError(t, err)
		assert.Equal(t, []interface{}{map[string]interface{}{"key": "B", "value": "x"}}, cfg[model.ConfigKeyYamlVariables])
	})

	t.Run("OptionalKeys", func(t *testing.T) {
		view := presenter(1, &entity.BuildMetadata{
			ConfigOptions: entity.JSONB(`{}`),
			IDTokens:      entity.JSONB(`{"ID_TOKEN":{"aud":"https://example.com"}}`),
			Secrets:       entity.JSONB(`{}`),
			Interruptible: boolPtr(false),
		}, "linux", "docker")
		view.RunSteps = entity.JSONB(`[{"name":"build","step":"./build"}]`)

		cfg, err := b.Config(view)
		require.NoError(t, err)
		assert.Contains(t, cfg, model.ConfigKeyIDTokens)
		assert.NotContains(t, cfg, model.ConfigKeySecrets)
		assert.Equal(t, false, cfg[model.ConfigKeyInterruptible])
		assert.Equal(t, []string{"linux", "docker"}, cfg[model.ConfigKeyTagList])
		assert.Contains(t, cfg, model.ConfigKeyRunSteps)
	})

	t.Run("NothingKnown", func(t *testing.T) {
		cfg, err := b.Config(presenter(1, nil))
		require.NoError(t, err)
		assert.Equal(t, model.DefinitionConfig{
			model.ConfigKeyOptions:       map[string]interface{}{},
			model.ConfigKeyYamlVariables: []interface{}{},
		}, cfg)
	})
}

func TestDefinitionBuilder_InterruptibleFlag(t *testing.T) {
	def, err := NewDefinitionBuilder().Build(presenter(1, &entity.BuildMetadata{Interruptible: boolPtr(true)}))

	require.NoError(t, err)
	assert.True(t, def.Interruptible)
	assert.Equal(t, int64(42), def.ProjectID)
	assert.Equal(t, int64(5), def.PartitionID)
}

func TestDefinitionBuilder_UnreadableLegacyIsAbsent(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	view := presenter(7, nil)
	view.Build.Options = strPtr(":image: [broken")

	cfg, err := NewDefinitionBuilder().Config(view)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, cfg[model.ConfigKeyOptions])
	assert.Contains(t, buf.String(), "ignoring unreadable options of build 7")
}

func TestDefinitionBuilder_BuildAllDeduplicates(t *testing.T) {
	views := []*model.JobPresenter{
		presenter(1, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"a"}`)}),
		presenter(2, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"b"}`)}),
		presenter(3, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{"image":"a"}`)}),
	}

	defs, err := NewDefinitionBuilder().BuildAll(views)

	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, views[0].Candidate.Checksum, defs[0].Checksum)
	assert.Equal(t, views[1].Candidate.Checksum, defs[1].Checksum)
	assert.Equal(t, views[0].Candidate.GlobalIdentifier(), views[2].Candidate.GlobalIdentifier())
}

func TestDefinitionBuilder_InvalidMetadataJSON(t *testing.T) {
	_, err := NewDefinitionBuilder().Build(presenter(1, &entity.BuildMetadata{ConfigOptions: entity.JSONB(`{broken`)}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "definition_builder")
}
