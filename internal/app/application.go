// Package app assembles the migration job with Fx and runs one command to completion.
package app

import (
	"context"
	"fmt"
	"io/fs"

	"go.uber.org/fx"

	"github.com/tigerroll/buildmeta/internal/cutoff"
	"github.com/tigerroll/buildmeta/internal/job"
	"github.com/tigerroll/buildmeta/internal/repository"
	"github.com/tigerroll/buildmeta/internal/step"
	gormadapter "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database/gorm/postgres"
	migrationTasklet "github.com/tigerroll/buildmeta/pkg/batch/component/tasklet/migration"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/engine/step/partition"
	"github.com/tigerroll/buildmeta/pkg/batch/engine/step/retry"
	"github.com/tigerroll/buildmeta/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/buildmeta/pkg/batch/infrastructure/repository/checkpoint"
	"github.com/tigerroll/buildmeta/pkg/batch/infrastructure/telemetry"
	"github.com/tigerroll/buildmeta/pkg/batch/listener"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// Command selects what the application does once the graph is built.
type Command int

const (
	// CommandRun applies pending schema migrations when enabled, then runs the migration job.
	CommandRun Command = iota
	// CommandSchemaUp only applies the schema migrations.
	CommandSchemaUp
)

// Options carries everything main.go hands to the application.
type Options struct {
	EnvFilePath    string
	EmbeddedConfig config.EmbeddedConfig
	// MigrationsFS holds the application migrations, one directory per database type.
	MigrationsFS fs.FS
	Command      Command
	Run          job.RunOptions
}

// outcome carries the error of the command goroutine back to RunApplication. It is
// written before shutdown is requested and read after the application stopped.
type outcome struct {
	err error
}

// NewModules returns every module of the application graph.
func NewModules() fx.Option {
	return fx.Options(
		logger.Module,
		config.Module,
		postgres.Module,
		gormadapter.Module,
		migrationTasklet.Module,
		telemetry.Module,
		metrics.Module,
		partition.Module,
		retry.Module,
		listener.Module,
		checkpoint.Module,
		repository.Module,
		cutoff.Module,
		step.Module,
		job.Module,
	)
}

// RunApplication builds the graph, runs the command and returns its error once the
// application has shut down. Cancelling appCtx stops the job between sub-batches.
func RunApplication(appCtx context.Context, opts Options) error {
	result := &outcome{}

	app := fx.New(
		fx.Supply(
			opts.EmbeddedConfig,
			fx.Annotate(opts.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(opts.MigrationsFS, fx.As(new(fs.FS)), fx.ResultTags(`name:"applicationMigrationsFS"`)),
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
			opts,
			result,
		),
		NewModules(),
		fx.Invoke(fx.Annotate(startCommand, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // cfg *config.Config
			"",              // schema *migrationTasklet.SchemaTasklet
			"",              // migration *job.MoveCiBuildsMetadata
			"",              // opts Options
			"",              // result *outcome
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warnf("Application did not stop cleanly: %v", err)
	}
	return result.err
}

// startCommand is invoked by Fx to run the selected command once the application starts.
func startCommand(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	schema *migrationTasklet.SchemaTasklet,
	migration *job.MoveCiBuildsMetadata,
	opts Options,
	result *outcome,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in command execution: %v", r)
						result.err = fmt.Errorf("panic: %v", r)
					}
					logger.Infof("Requesting application shutdown after command completion.")
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				if err := runCommand(appCtx, cfg, schema, migration, opts); err != nil {
					logger.Errorf("Command failed: %v", err)
					result.err = err
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

func runCommand(ctx context.Context, cfg *config.Config, schema *migrationTasklet.SchemaTasklet, migration *job.MoveCiBuildsMetadata, opts Options) error {
	if opts.Command == CommandSchemaUp || cfg.Buildmeta.Schema.AutoMigrate {
		if err := schema.Execute(ctx); err != nil {
			return err
		}
		if opts.Command == CommandSchemaUp {
			return nil
		}
	}

	jobName := cfg.Buildmeta.Batch.JobName
	logger.Infof("Starting job '%s'...", jobName)
	summary, err := migration.Perform(ctx, opts.Run)
	if err != nil {
		return err
	}
	logger.Infof("Job '%s' (Execution ID: %s) completed: %d sub-batches over ids [%d, %d].",
		jobName, summary.ExecutionID, summary.SubBatches, summary.Range.Start, summary.Range.End)
	return nil
}
