package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tigerroll/buildmeta/internal/app"
	"github.com/tigerroll/buildmeta/internal/job"
)

func defaultEnvFile() string {
	if path := os.Getenv("ENV_FILE_PATH"); path != "" {
		return path
	}
	return ".env"
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "buildmeta",
		Short:         "Move CI build metadata into job definitions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile(), "path of the .env file to load")

	options := func(cmd app.Command) app.Options {
		return app.Options{
			EnvFilePath:    envFile,
			EmbeddedConfig: embeddedConfig,
			MigrationsFS:   migrationsFS(),
			Command:        cmd,
		}
	}

	root.AddCommand(newRunCommand(options), newSchemaCommand(options))
	return root
}

func newRunCommand(options func(app.Command) app.Options) *cobra.Command {
	var run job.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the migration over the builds id range",
		Long: "Run the migration over the builds id range. Without --start-id and --end-id the\n" +
			"range comes from the configuration, then from the smallest and largest build id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := options(app.CommandRun)
			opts.Run = run
			return app.RunApplication(cmd.Context(), opts)
		},
	}
	cmd.Flags().Int64Var(&run.StartID, "start-id", 0, "first build id to migrate")
	cmd.Flags().Int64Var(&run.EndID, "end-id", 0, "last build id to migrate")
	cmd.Flags().IntVar(&run.GridSize, "grid-size", 0, "number of partitions processed concurrently")
	return cmd
}

func newSchemaCommand(options func(app.Command) app.Options) *cobra.Command {
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Manage the database schema",
	}
	schema.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunApplication(cmd.Context(), options(app.CommandSchemaUp))
		},
	})
	return schema
}
