// Package cutoff resolves the creation-time thresholds that limit which builds the
// migration processes.
package cutoff

import (
	"context"
	"os"
	"time"

	"github.com/tigerroll/buildmeta/internal/domain/model"
	config "github.com/tigerroll/buildmeta/pkg/batch/core/config"
	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// ArchiveWindowReader reads the persisted archive window of the instance.
type ArchiveWindowReader interface {
	// ArchiveBuildsInSeconds returns the setting of the most recent settings row, or nil.
	ArchiveBuildsInSeconds(ctx context.Context) (*int64, error)
}

// Policy resolves the migration and processing-data cutoffs.
type Policy struct {
	migrationEnv  string
	processingEnv string
	settings      ArchiveWindowReader
	lookupEnv     func(string) (string, bool)
	now           func() time.Time
}

// Option customizes a Policy.
type Option func(*Policy)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(p *Policy) { p.lookupEnv = lookup }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// NewPolicy creates a Policy reading the variables named in cfg.
func NewPolicy(cfg *config.MigrationConfig, settings ArchiveWindowReader, opts ...Option) *Policy {
	p := &Policy{
		migrationEnv:  cfg.MigrationCutoffEnv,
		processingEnv: cfg.ProcessingCutoffEnv,
		settings:      settings,
		lookupEnv:     os.LookupEnv,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPolicyProvider is the Fx constructor of Policy.
func NewPolicyProvider(cfg *config.MigrationConfig, settings ArchiveWindowReader) *Policy {
	return NewPolicy(cfg, settings)
}

// Resolve computes both cutoffs and logs them. It never fails: unparsable values and an
// unreadable settings row count as absent.
//
// The processing cutoff falls back to the archive window setting, then to the migration cutoff.
func (p *Policy) Resolve(ctx context.Context) model.Cutoffs {
	now := p.now()
	cutoffs := model.Cutoffs{Migration: p.fromEnv(p.migrationEnv, now)}

	processingSource := "env"
	cutoffs.Processing = p.fromEnv(p.processingEnv, now)
	if cutoffs.Processing == nil {
		processingSource = "archive_builds_in_seconds"
		cutoffs.Processing = p.fromArchiveWindow(ctx, now)
	}
	if cutoffs.Processing == nil {
		processingSource = "migration_cutoff"
		cutoffs.Processing = cutoffs.Migration
	}

	logger.Infow("Resolved build metadata migration cutoffs",
		"migration_cutoff", formatCutoff(cutoffs.Migration),
		"processing_data_cutoff", formatCutoff(cutoffs.Processing),
		"processing_data_cutoff_source", processingSource,
	)
	return cutoffs
}

func (p *Policy) fromEnv(name string, now time.Time) *time.Time {
	if name == "" {
		return nil
	}
	raw, ok := p.lookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	d, err := ParseDuration(raw)
	if err != nil {
		logger.Warnf("Ignoring %s=%q: %v", name, raw, err)
		return nil
	}
	t := now.Add(-d)
	return &t
}

func (p *Policy) fromArchiveWindow(ctx context.Context, now time.Time) *time.Time {
	if p.settings == nil {
		return nil
	}
	seconds, err := p.settings.ArchiveBuildsInSeconds(ctx)
	if err != nil {
		logger.Warnf("Could not read archive_builds_in_seconds, ignoring it: %v", err)
		return nil
	}
	if seconds == nil {
		return nil
	}
	t := now.Add(-time.Duration(*seconds) * time.Second)
	return &t
}

func formatCutoff(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.UTC().Format(time.RFC3339)
}
