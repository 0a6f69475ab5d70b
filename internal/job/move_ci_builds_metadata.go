// Package job drives the build metadata migration over the id range of the builds table.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/internal/domain/model"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/internal/step"
	"github.com/tigerroll/buildmeta/pkg/batch/component/partitioner"
	port "github.com/tigerroll/buildmeta/pkg/batch/core/application/port"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	coremodel "github.com/tigerroll/buildmeta/pkg/batch/core/domain/model"
	corerepo "github.com/tigerroll/buildmeta/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/buildmeta/pkg/batch/core/metrics"
	"github.com/tigerroll/buildmeta/pkg/batch/engine/step/partition"
	"github.com/tigerroll/buildmeta/pkg/batch/engine/step/retry"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/exception"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

const moduleName = "move_ci_builds_metadata"

// CutoffResolver resolves the creation-time thresholds of a run.
type CutoffResolver interface {
	Resolve(ctx context.Context) model.Cutoffs
}

// RunOptions overrides the configured id range and grid size. Zero values keep the configuration.
type RunOptions struct {
	StartID  int64
	EndID    int64
	GridSize int
}

// SubBatchResult counts the rows each stage touched in one sub-batch.
type SubBatchResult struct {
	ColumnsBackfilled   int64
	ArtifactsBackfilled int64
	DefinitionsBuilt    int64
	DefinitionsCreated  int64
	DefinitionLinks     int64
	EnvironmentLinks    int64
}

func (r *SubBatchResult) add(o SubBatchResult) {
	r.ColumnsBackfilled += o.ColumnsBackfilled
	r.ArtifactsBackfilled += o.ArtifactsBackfilled
	r.DefinitionsBuilt += o.DefinitionsBuilt
	r.DefinitionsCreated += o.DefinitionsCreated
	r.DefinitionLinks += o.DefinitionLinks
	r.EnvironmentLinks += o.EnvironmentLinks
}

// Rows maps each stage that touched rows to its count.
func (r SubBatchResult) Rows() map[string]int64 {
	rows := map[string]int64{}
	for stage, n := range map[metrics.Stage]int64{
		metrics.StageColumnBackfill:     r.ColumnsBackfilled,
		metrics.StageArtifactBackfill:   r.ArtifactsBackfilled,
		metrics.StageDefinitionsBuilt:   r.DefinitionsBuilt,
		metrics.StageDefinitionsCreated: r.DefinitionsCreated,
		metrics.StageDefinitionLinks:    r.DefinitionLinks,
		metrics.StageEnvironmentLinks:   r.EnvironmentLinks,
	} {
		if n > 0 {
			rows[string(stage)] = n
		}
	}
	return rows
}

// Summary describes a finished run.
type Summary struct {
	ExecutionID string
	Range       model.SubBatch
	Partitions  int
	SubBatches  int
	Cutoffs     model.Cutoffs
	Totals      SubBatchResult
}

// Params holds the dependencies of MoveCiBuildsMetadata.
type Params struct {
	fx.In
	Batch        *config.BatchConfig
	Migration    *config.MigrationConfig
	Cutoffs      CutoffResolver
	Builds       repository.BuildRepository
	Assembler    *step.RecordAssembler
	Builder      *step.DefinitionBuilder
	Definitions  *step.DefinitionPersister
	Links        *step.LinkPersister
	Backfiller   *step.ColumnBackfiller
	Environments *step.EnvironmentExtractor
	Partitioner  *partitioner.RangePartitioner
	Executor     partition.Executor
	Checkpoints  corerepo.CheckpointRepository
	Retry        retry.RetryPolicy
	Tracer       metrics.Tracer

	JobListeners      []port.JobExecutionListener `group:"jobListeners"`
	SubBatchListeners []port.SubBatchListener     `group:"subBatchListeners"`
}

// MoveCiBuildsMetadata moves the job configuration held by p_ci_builds and
// p_ci_builds_metadata into content-addressed job definitions, backfills legacy build
// columns and links jobs to their environments. Every write is idempotent, so a
// sub-batch may be re-run at any time.
type MoveCiBuildsMetadata struct {
	p Params
}

// NewMoveCiBuildsMetadata creates a new instance of [MoveCiBuildsMetadata].
func NewMoveCiBuildsMetadata(p Params) *MoveCiBuildsMetadata {
	return &MoveCiBuildsMetadata{p: p}
}

// Perform migrates the whole id range. Cutoffs are resolved once. The range is split
// into partitions processed concurrently, each walking its ids in sub-batches and
// recording a checkpoint after every sub-batch. A sub-batch failing with a temporary
// error is run again according to the retry policy.
func (j *MoveCiBuildsMetadata) Perform(ctx context.Context, opts RunOptions) (summary *Summary, err error) {
	jobName := j.p.Batch.JobName
	summary = &Summary{ExecutionID: uuid.NewString()}

	ctx, endSpan := j.p.Tracer.StartJobSpan(ctx, jobName, summary.ExecutionID)
	defer endSpan()

	summary.Cutoffs = j.p.Cutoffs.Resolve(ctx)

	idRange, ok, err := j.resolveRange(ctx, opts)
	if err != nil {
		return summary, err
	}
	if !ok {
		logger.Infof("%s: builds table is empty, nothing to migrate.", moduleName)
		return summary, nil
	}
	summary.Range = idRange

	gridSize := j.p.Batch.GridSize
	if opts.GridSize > 0 {
		gridSize = opts.GridSize
	}
	partitions, err := j.p.Partitioner.Partition(idRange.Start, idRange.End, gridSize)
	if err != nil {
		return summary, exception.NewBatchError(moduleName, "failed to partition id range", err, false, false)
	}
	summary.Partitions = len(partitions)

	execution := &coremodel.JobExecution{
		JobName:     jobName,
		ExecutionID: summary.ExecutionID,
		StartID:     idRange.Start,
		EndID:       idRange.End,
		Partitions:  len(partitions),
		StartedAt:   time.Now(),
	}
	for _, l := range j.p.JobListeners {
		l.BeforeJob(ctx, execution)
	}
	defer func() {
		execution.SubBatches = summary.SubBatches
		execution.EndedAt = time.Now()
		execution.Err = err
		for _, l := range j.p.JobListeners {
			l.AfterJob(ctx, execution)
		}
	}()

	var mu sync.Mutex
	worker := func(ctx context.Context, r partitioner.Range) error {
		return j.runPartition(ctx, summary.ExecutionID, r, summary.Cutoffs, func(res SubBatchResult) {
			mu.Lock()
			defer mu.Unlock()
			summary.SubBatches++
			summary.Totals.add(res)
		})
	}
	err = j.p.Executor.Execute(ctx, partitions, worker)
	if err != nil {
		j.p.Tracer.RecordError(ctx, moduleName, err)
		return summary, err
	}

	logger.Infow("Finished build metadata migration",
		"execution_id", summary.ExecutionID,
		"sub_batches", summary.SubBatches,
		"columns_backfilled", summary.Totals.ColumnsBackfilled,
		"definitions_created", summary.Totals.DefinitionsCreated,
		"definition_links", summary.Totals.DefinitionLinks,
		"environment_links", summary.Totals.EnvironmentLinks,
	)
	return summary, nil
}

// resolveRange fills the ends of the id range left open by the options and the configuration.
func (j *MoveCiBuildsMetadata) resolveRange(ctx context.Context, opts RunOptions) (model.SubBatch, bool, error) {
	r := model.SubBatch{Start: j.p.Batch.StartID, End: j.p.Batch.EndID}
	if opts.StartID > 0 {
		r.Start = opts.StartID
	}
	if opts.EndID > 0 {
		r.End = opts.EndID
	}
	if r.Start > 0 && r.End > 0 {
		if r.End < r.Start {
			return r, false, exception.NewBatchError(moduleName, fmt.Sprintf("id range [%d, %d] is empty", r.Start, r.End), nil, false, false)
		}
		return r, true, nil
	}

	bounds, ok, err := j.p.Builds.IDRange(ctx)
	if err != nil || !ok {
		return r, ok, err
	}
	if r.Start == 0 {
		r.Start = bounds.Start
	}
	if r.End == 0 {
		r.End = bounds.End
	}
	return r, r.Start <= r.End, nil
}

func (j *MoveCiBuildsMetadata) runPartition(ctx context.Context, executionID string, r partitioner.Range, cutoffs model.Cutoffs, collect func(SubBatchResult)) error {
	jobName := j.p.Batch.JobName
	from := r.Start

	if j.p.Batch.Resume {
		cp, err := j.p.Checkpoints.FindCheckpoint(ctx, jobName, r.Index, r.Start, r.End)
		switch {
		case errors.Is(err, corerepo.ErrCheckpointNotFound):
		case err != nil:
			return err
		case cp.Done():
			logger.Infof("%s: %s [%d, %d] already completed by execution %s.", moduleName, r.Name(), r.Start, r.End, cp.ExecutionID)
			return nil
		default:
			from = cp.ResumeFrom(r.Start)
			logger.Infof("%s: %s resuming at id %d.", moduleName, r.Name(), from)
		}
	}

	if from > r.End {
		return nil
	}
	for lo := from; ; {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s stopped before id %d: %w", r.Name(), lo, err)
		}
		batch := subBatchAt(lo, r.End, j.p.Batch.SubBatchSize)

		var res SubBatchResult
		err := retry.Do(ctx, j.p.Retry, r.Name(), func(ctx context.Context, attempt int) error {
			started := time.Now()
			var err error
			res, err = j.PerformSubBatch(ctx, batch, cutoffs)
			j.afterSubBatch(ctx, &coremodel.SubBatchExecution{
				JobName:     jobName,
				ExecutionID: executionID,
				Partition:   r.Name(),
				StartID:     batch.Start,
				EndID:       batch.End,
				Attempt:     attempt,
				Duration:    time.Since(started),
				Rows:        res.Rows(),
				Err:         err,
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("%s sub-batch [%d, %d]: %w", r.Name(), batch.Start, batch.End, err)
		}
		collect(res)

		cp := &coremodel.Checkpoint{
			JobName:     jobName,
			Partition:   r.Index,
			RangeStart:  r.Start,
			RangeEnd:    r.End,
			LastID:      batch.End,
			ExecutionID: executionID,
			UpdatedAt:   time.Now().UTC(),
		}
		if err := j.p.Checkpoints.SaveCheckpoint(ctx, cp); err != nil {
			return err
		}

		if batch.End == r.End {
			return nil
		}
		if err := pause(ctx, j.p.Batch.Pause()); err != nil {
			return fmt.Errorf("%s paused after id %d: %w", r.Name(), batch.End, err)
		}
		lo = batch.End + 1
	}
}

// subBatchAt returns the sub-batch of at most size ids starting at lo, clipped to end.
// It never computes an id beyond end, so ranges reaching math.MaxInt64 terminate.
func subBatchAt(lo, end, size int64) model.SubBatch {
	if end-lo < size {
		return model.SubBatch{Start: lo, End: end}
	}
	return model.SubBatch{Start: lo, End: lo + size - 1}
}

// PerformSubBatch runs the pipeline on one sub-batch: column backfill, then definition
// extraction and linking, then environment extraction.
func (j *MoveCiBuildsMetadata) PerformSubBatch(ctx context.Context, batch model.SubBatch, cutoffs model.Cutoffs) (SubBatchResult, error) {
	jobName := j.p.Batch.JobName
	ctx, endSpan := j.p.Tracer.StartSubBatchSpan(ctx, jobName, batch.Start, batch.End)
	defer endSpan()

	var res SubBatchResult
	filter := step.NewRowFilter(j.p.Builds, batch, cutoffs)

	keys, err := filter.RowsForColumnBackfill(ctx)
	if err != nil {
		return res, j.fail(ctx, "column_backfill", err)
	}
	backfilled, err := j.p.Backfiller.Backfill(ctx, keys)
	if err != nil {
		return res, j.fail(ctx, "column_backfill", err)
	}
	res.ColumnsBackfilled, res.ArtifactsBackfilled = backfilled.Builds, backfilled.Artifacts

	rows, err := filter.RowsForDefinitionBuild(ctx)
	if err != nil {
		return res, j.fail(ctx, "definitions", err)
	}
	if len(rows) > 0 {
		views, err := j.p.Assembler.Assemble(ctx, rows)
		if err != nil {
			return res, j.fail(ctx, "definitions", err)
		}
		candidates, err := j.p.Builder.BuildAll(views)
		if err != nil {
			return res, j.fail(ctx, "definitions", err)
		}
		persisted, created, err := j.p.Definitions.Persist(ctx, candidates)
		if err != nil {
			return res, j.fail(ctx, "definitions", err)
		}
		if err := j.p.Links.Assign(views, persisted); err != nil {
			return res, j.fail(ctx, "definitions", err)
		}
		linked, err := j.p.Links.Link(ctx, views)
		if err != nil {
			return res, j.fail(ctx, "definitions", err)
		}
		res.DefinitionsBuilt, res.DefinitionsCreated, res.DefinitionLinks = int64(len(candidates)), created, linked
	}

	if j.p.Migration.ExtractEnvironments {
		envRows, err := filter.RowsForEnvironmentExtraction(ctx)
		if err != nil {
			return res, j.fail(ctx, "environments", err)
		}
		attrs, err := j.p.Environments.Extract(ctx, envRows)
		if err != nil {
			return res, j.fail(ctx, "environments", err)
		}
		res.EnvironmentLinks, err = j.p.Environments.Persist(ctx, attrs)
		if err != nil {
			return res, j.fail(ctx, "environments", err)
		}
	}

	logger.Debugf("%s: sub-batch [%d, %d] done: %+v", moduleName, batch.Start, batch.End, res)
	return res, nil
}

func (j *MoveCiBuildsMetadata) afterSubBatch(ctx context.Context, e *coremodel.SubBatchExecution) {
	for _, l := range j.p.SubBatchListeners {
		l.AfterSubBatch(ctx, e)
	}
}

func (j *MoveCiBuildsMetadata) fail(ctx context.Context, stage string, err error) error {
	j.p.Tracer.RecordError(ctx, stage, err)
	return err
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
