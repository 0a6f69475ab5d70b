package step

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// EnvironmentExtractor derives job to environment links from build metadata.
type EnvironmentExtractor struct {
	metadata     repository.MetadataRepository
	environments repository.JobEnvironmentRepository
}

// NewEnvironmentExtractor creates a new instance of [EnvironmentExtractor].
func NewEnvironmentExtractor(metadata repository.MetadataRepository, environments repository.JobEnvironmentRepository) *EnvironmentExtractor {
	return &EnvironmentExtractor{metadata: metadata, environments: environments}
}

// Extract loads the metadata of builds that deploy to an environment and projects it.
func (e *EnvironmentExtractor) Extract(ctx context.Context, builds []entity.Build) ([]model.EnvironmentAttributes, error) {
	if len(builds) == 0 {
		return nil, nil
	}
	rows, err := e.metadata.FindWithEnvironment(ctx, entity.Keys(builds))
	if err != nil {
		return nil, err
	}
	buildByKey := make(map[entity.BuildKey]entity.Build, len(builds))
	for _, b := range builds {
		buildByKey[b.Key()] = b
	}

	attrs := make([]model.EnvironmentAttributes, 0, len(rows))
	for i := range rows {
		build, ok := buildByKey[rows[i].Key()]
		if !ok {
			continue
		}
		if a, ok := ProjectEnvironment(build, &rows[i]); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs, nil
}

// Persist inserts the links whose environment exists. It does nothing for an empty input.
func (e *EnvironmentExtractor) Persist(ctx context.Context, attrs []model.EnvironmentAttributes) (int64, error) {
	if len(attrs) == 0 {
		return 0, nil
	}
	return e.environments.InsertResolved(ctx, attrs)
}

// ProjectEnvironment builds the environment attributes of a build. ok is false when the
// metadata names no environment or the build has no pipeline.
func ProjectEnvironment(build entity.Build, md *entity.BuildMetadata) (model.EnvironmentAttributes, bool) {
	if md == nil || md.ExpandedEnvironmentName == nil {
		return model.EnvironmentAttributes{}, false
	}
	if build.CommitID == nil {
		logger.Debugf("environment_extractor: build %d has no pipeline, skipping environment link.", build.ID)
		return model.EnvironmentAttributes{}, false
	}
	return model.EnvironmentAttributes{
		ProjectID:               build.ProjectID,
		CIJobID:                 build.ID,
		CIPipelineID:            *build.CommitID,
		ExpandedEnvironmentName: *md.ExpandedEnvironmentName,
		Options:                 environmentOptions(md.ConfigOptions),
	}, true
}

// environmentOptions keeps environment.action, environment.deployment_tier and
// environment.kubernetes.namespace of the job options.
func environmentOptions(configOptions entity.JSONB) map[string]interface{} {
	options := map[string]interface{}{}
	if configOptions.IsNull() {
		return options
	}
	env := gjson.GetBytes(configOptions, "environment")
	if !env.IsObject() {
		return options
	}
	for _, field := range []string{"action", "deployment_tier"} {
		if v := env.Get(field); v.Exists() && v.Type != gjson.Null {
			options[field] = v.Value()
		}
	}
	if ns := env.Get("kubernetes.namespace"); ns.Exists() && ns.Type != gjson.Null {
		options["kubernetes"] = map[string]interface{}{"namespace": ns.Value()}
	}
	return options
}
