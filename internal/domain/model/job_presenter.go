// Package model holds the transient, per-sub-batch values the migration pipeline builds.
package model

import (
	"time"

	"github.com/tigerroll/buildmeta/internal/domain/entity"
)

// SubBatch is the closed id range handed to one pipeline invocation.
type SubBatch struct {
	Start int64
	End   int64
}

// Cutoffs are the creation-time thresholds resolved once per job. A nil field disables
// the corresponding filter.
type Cutoffs struct {
	Migration  *time.Time
	Processing *time.Time
}

// JobPresenter is a build decorated with the side-table data needed to derive its
// definition. It lives for one sub-batch and is not shared between goroutines.
type JobPresenter struct {
	Build    entity.Build
	Metadata *entity.BuildMetadata
	TagList  []string
	RunSteps entity.JSONB

	// Candidate is the definition derived from the presenter, before persistence.
	Candidate *entity.JobDefinition
	// Definition is the persisted definition assigned to the build.
	Definition *entity.JobDefinition
}

// NewJobPresenter wraps a build with no side data attached.
func NewJobPresenter(build entity.Build) *JobPresenter {
	return &JobPresenter{Build: build}
}

// Key returns the composite identifier of the wrapped build.
func (p *JobPresenter) Key() entity.BuildKey {
	return p.Build.Key()
}
