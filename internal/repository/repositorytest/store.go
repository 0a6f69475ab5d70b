// Package repositorytest provides a map-backed store implementing the migration
// repositories for tests. It mirrors the unique constraints and conflict handling of the
// PostgreSQL schema so the pipeline can run without a database.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/pkg/batch/core/tx"
)

type environmentKey struct {
	projectID int64
	name      string
}

// Store holds every table the migration touches. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	builds          map[entity.BuildKey]*entity.Build
	metadata        map[entity.BuildKey]*entity.BuildMetadata
	tags            map[entity.BuildKey][]string
	runSteps        map[entity.BuildKey]entity.JSONB
	definitions     map[entity.GlobalIdentifier]*entity.JobDefinition
	instances       map[entity.BuildKey]entity.JobDefinitionInstance
	environments    map[environmentKey]int64
	deployments     map[int64]int64
	jobEnvironments map[int64]entity.JobEnvironment
	artifacts       []*entity.JobArtifact
	archiveSeconds  *int64

	nextDefinitionID     int64
	nextJobEnvironmentID int64
	queries              int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		builds:          map[entity.BuildKey]*entity.Build{},
		metadata:        map[entity.BuildKey]*entity.BuildMetadata{},
		tags:            map[entity.BuildKey][]string{},
		runSteps:        map[entity.BuildKey]entity.JSONB{},
		definitions:     map[entity.GlobalIdentifier]*entity.JobDefinition{},
		instances:       map[entity.BuildKey]entity.JobDefinitionInstance{},
		environments:    map[environmentKey]int64{},
		deployments:     map[int64]int64{},
		jobEnvironments: map[int64]entity.JobEnvironment{},
	}
}

// AddBuild stores a build with its optional metadata.
func (s *Store) AddBuild(b entity.Build, md *entity.BuildMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := b
	s.builds[b.Key()] = &clone
	if md != nil {
		m := *md
		m.BuildID, m.PartitionID = b.ID, b.PartitionID
		s.metadata[b.Key()] = &m
	}
}

// SetTags sets the tag names of a build.
func (s *Store) SetTags(key entity.BuildKey, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	s.tags[key] = sorted
}

// SetRunSteps sets the run steps reachable through the execution config of a build.
func (s *Store) SetRunSteps(key entity.BuildKey, steps entity.JSONB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runSteps[key] = steps
}

// AddEnvironment stores an environment and returns its id.
func (s *Store) AddEnvironment(projectID int64, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.environments) + 1)
	s.environments[environmentKey{projectID, name}] = id
	return id
}

// AddDeployment records the deployment created by a job.
func (s *Store) AddDeployment(jobID, deploymentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[jobID] = deploymentID
}

// AddArtifact stores a job artifact.
func (s *Store) AddArtifact(a entity.JobArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := a
	s.artifacts = append(s.artifacts, &clone)
}

// SetArchiveBuildsInSeconds sets the archive window setting.
func (s *Store) SetArchiveBuildsInSeconds(seconds *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveSeconds = seconds
}

// Build returns a copy of a stored build.
func (s *Store) Build(key entity.BuildKey) (entity.Build, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.builds[key]
	if !ok {
		return entity.Build{}, false
	}
	return *b, true
}

// Artifacts returns copies of the stored artifacts.
func (s *Store) Artifacts() []entity.JobArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.JobArtifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		out = append(out, *a)
	}
	return out
}

// Definitions returns the stored definitions ordered by id.
func (s *Store) Definitions() []entity.JobDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.JobDefinition, 0, len(s.definitions))
	for _, d := range s.definitions {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Instances returns the stored definition instances ordered by job id.
func (s *Store) Instances() []entity.JobDefinitionInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.JobDefinitionInstance, 0, len(s.instances))
	for _, i := range s.instances {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// JobEnvironments returns the stored job environment links ordered by job id.
func (s *Store) JobEnvironments() []entity.JobEnvironment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.JobEnvironment, 0, len(s.jobEnvironments))
	for _, e := range s.jobEnvironments {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CIJobID < out[j].CIJobID })
	return out
}

// Queries returns the number of read round trips served so far.
func (s *Store) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// IDRange implements repository.BuildRepository.
func (s *Store) IDRange(_ context.Context) (model.SubBatch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if len(s.builds) == 0 {
		return model.SubBatch{}, false, nil
	}
	first := true
	var r model.SubBatch
	for k := range s.builds {
		if first || k.ID < r.Start {
			r.Start = k.ID
		}
		if first || k.ID > r.End {
			r.End = k.ID
		}
		first = false
	}
	return r, true, nil
}

// FindUnlinked implements repository.BuildRepository.
func (s *Store) FindUnlinked(_ context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return s.selectBuilds(batch, createdSince, func(k entity.BuildKey) bool {
		_, linked := s.instances[k]
		return !linked
	}), nil
}

// FindCreatedSince implements repository.BuildRepository.
func (s *Store) FindCreatedSince(_ context.Context, batch model.SubBatch, createdSince *time.Time) ([]entity.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return s.selectBuilds(batch, createdSince, nil), nil
}

func (s *Store) selectBuilds(batch model.SubBatch, createdSince *time.Time, keep func(entity.BuildKey) bool) []entity.Build {
	out := []entity.Build{}
	for k, b := range s.builds {
		if k.ID < batch.Start || k.ID > batch.End {
			continue
		}
		if createdSince != nil && b.CreatedAt.Before(*createdSince) {
			continue
		}
		if keep != nil && !keep(k) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByBuilds implements repository.MetadataRepository.
func (s *Store) FindByBuilds(_ context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error) {
	return s.findMetadata(keys, false), nil
}

// FindWithEnvironment implements repository.MetadataRepository.
func (s *Store) FindWithEnvironment(_ context.Context, keys []entity.BuildKey) ([]entity.BuildMetadata, error) {
	return s.findMetadata(keys, true), nil
}

func (s *Store) findMetadata(keys []entity.BuildKey, withEnvironment bool) []entity.BuildMetadata {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	out := make([]entity.BuildMetadata, 0, len(keys))
	for _, k := range keys {
		md, ok := s.metadata[k]
		if !ok || (withEnvironment && md.ExpandedEnvironmentName == nil) {
			continue
		}
		out = append(out, *md)
	}
	return out
}

// FindTagLists implements repository.TagRepository.
func (s *Store) FindTagLists(_ context.Context, keys []entity.BuildKey) (map[entity.BuildKey][]string, error) {
	out := map[entity.BuildKey][]string{}
	if len(keys) == 0 {
		return out, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	for _, k := range keys {
		if names, ok := s.tags[k]; ok && len(names) > 0 {
			out[k] = append([]string(nil), names...)
		}
	}
	return out, nil
}

// FindRunSteps implements repository.RunStepRepository.
func (s *Store) FindRunSteps(_ context.Context, keys []entity.BuildKey) (map[entity.BuildKey]entity.JSONB, error) {
	out := map[entity.BuildKey]entity.JSONB{}
	if len(keys) == 0 {
		return out, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	for _, k := range keys {
		if steps, ok := s.runSteps[k]; ok {
			out[k] = steps
		}
	}
	return out, nil
}

// BackfillBuilds implements repository.BackfillRepository. Writes apply immediately; exec
// is not used.
func (s *Store) BackfillBuilds(_ context.Context, _ tx.TxExecutor, keys []entity.BuildKey) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		b, ok := s.builds[k]
		md, hasMD := s.metadata[k]
		if !ok || !hasMD {
			continue
		}
		if b.ScopedUserID == nil {
			if v := gjson.GetBytes(md.ConfigOptions, "scoped_user_id"); v.Exists() && v.Type != gjson.Null {
				id := v.Int()
				b.ScopedUserID = &id
			}
		}
		if b.Timeout == nil {
			b.Timeout = md.Timeout
		}
		if b.TimeoutSource == nil {
			b.TimeoutSource = md.TimeoutSource
		}
		if b.ExitCode == nil {
			b.ExitCode = md.ExitCode
		}
		if b.DebugTraceEnabled == nil {
			b.DebugTraceEnabled = md.DebugTraceEnabled
		}
		n++
	}
	return n, nil
}

// BackfillArtifacts implements repository.BackfillRepository.
func (s *Store) BackfillArtifacts(_ context.Context, _ tx.TxExecutor, keys []entity.BuildKey) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[entity.BuildKey]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	var n int64
	for _, a := range s.artifacts {
		k := entity.BuildKey{ID: a.JobID, PartitionID: a.PartitionID}
		if _, ok := wanted[k]; !ok || a.FileType != entity.ArtifactFileTypeMetadata {
			continue
		}
		md, ok := s.metadata[k]
		if !ok {
			continue
		}
		artifacts := gjson.GetBytes(md.ConfigOptions, "artifacts")
		if a.ExposedAs == nil {
			if v := artifacts.Get("expose_as"); v.Exists() && v.Type != gjson.Null {
				exposeAs := v.String()
				a.ExposedAs = &exposeAs
			}
		}
		if a.ExposedPaths == nil {
			if paths := artifacts.Get("paths"); paths.IsArray() {
				a.ExposedPaths = []string{}
				for _, p := range paths.Array() {
					a.ExposedPaths = append(a.ExposedPaths, p.String())
				}
			}
		}
		n++
	}
	return n, nil
}

// InsertResolved implements repository.JobEnvironmentRepository.
func (s *Store) InsertResolved(_ context.Context, attrs []model.EnvironmentAttributes) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range attrs {
		envID, ok := s.environments[environmentKey{a.ProjectID, a.ExpandedEnvironmentName}]
		if !ok {
			continue
		}
		if _, exists := s.jobEnvironments[a.CIJobID]; exists {
			continue
		}
		options, err := a.OptionsJSON()
		if err != nil {
			return n, err
		}
		link := entity.JobEnvironment{
			ProjectID:               a.ProjectID,
			EnvironmentID:           envID,
			CIPipelineID:            a.CIPipelineID,
			CIJobID:                 a.CIJobID,
			ExpandedEnvironmentName: a.ExpandedEnvironmentName,
			Options:                 entity.JSONB(options),
		}
		if deploymentID, ok := s.deployments[a.CIJobID]; ok {
			link.DeploymentID = &deploymentID
		}
		s.nextJobEnvironmentID++
		link.ID = s.nextJobEnvironmentID
		s.jobEnvironments[a.CIJobID] = link
		n++
	}
	return n, nil
}

// ArchiveBuildsInSeconds implements repository.SettingsRepository.
func (s *Store) ArchiveBuildsInSeconds(_ context.Context) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return s.archiveSeconds, nil
}

var (
	_ repository.BuildRepository          = (*Store)(nil)
	_ repository.MetadataRepository       = (*Store)(nil)
	_ repository.TagRepository            = (*Store)(nil)
	_ repository.RunStepRepository        = (*Store)(nil)
	_ repository.BackfillRepository       = (*Store)(nil)
	_ repository.JobEnvironmentRepository = (*Store)(nil)
	_ repository.SettingsRepository       = (*Store)(nil)
)
