package etl

import (
	"context"
	"time"

	"propertyetl/config"
	"propertyetl/db"
	"propertyetl/model"
	"propertyetl/readiness"

	"go.uber.org/zap"
)

// Result describes one pipeline run.
type Result struct {
	Records int
	Schema  *model.StarSchema
	// Files are the CSV outputs written, in table order.
	Files []string
	// Probed is false when readiness checking was off or not applicable.
	Probed   bool
	Ready    bool
	Outcomes []TableOutcome
}

// Failed returns the outcomes of tables that did not load.
func (r *Result) Failed() []TableOutcome {
	var failed []TableOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Runner executes the pipeline. Zero-valued hooks fall back to the real
// implementations chosen by Config.
type Runner struct {
	Config  config.Config
	Logger  *zap.SugaredLogger
	Prober  readiness.Prober
	Connect func(cfg config.Database) (db.Store, error)
	Now     func() time.Time
}

// Run is Runner.Run with default hooks.
func Run(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Result, error) {
	r := &Runner{Config: cfg, Logger: logger}
	return r.Run(ctx)
}

// Run extracts, transforms and writes the local CSV files, then validates the
// database settings, waits for the database and loads every table. A non-nil
// error means the run stopped early; per-table load failures are reported in
// Result.Outcomes instead.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Config
	logger := r.logger()

	records, err := ReadRecords(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	logger.Infow("input read", "path", cfg.InputPath, "records", len(records))

	schema := Transform(records)
	res := &Result{Records: len(records), Schema: schema}
	logger.Infow("star schema derived",
		"properties", len(schema.Properties),
		"regions", len(schema.Regions),
		"facts", len(schema.Facts),
	)

	res.Files, err = WriteTables(cfg.OutputDir, schema, BackupOptions{
		Enabled:    cfg.Backup,
		MaxBackups: cfg.MaxBackups,
		Now:        r.Now,
	}, logger)
	if err != nil {
		return res, err
	}

	if err := cfg.Database.Validate(); err != nil {
		return res, err
	}

	if !r.waitForDatabase(ctx, res) {
		res.Outcomes = failAll(schema, ErrDatabaseNotReady)
		return res, nil
	}

	store, err := r.connect(cfg.Database)
	if err != nil {
		logger.Errorw("could not connect to database", "error", err)
		res.Outcomes = failAll(schema, err)
		return res, nil
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnw("failed to close database", "error", err)
		}
	}()

	if err := store.Ping(ctx); err != nil {
		logger.Errorw("database did not answer ping", "error", err)
		res.Outcomes = failAll(schema, err)
		return res, nil
	}

	res.Outcomes = Load(ctx, store, schema, logger)
	return res, nil
}

// waitForDatabase reports whether the load should go ahead.
func (r *Runner) waitForDatabase(ctx context.Context, res *Result) bool {
	cfg := r.Config
	logger := r.logger()
	if cfg.Readiness.Mode == config.ReadinessOff || cfg.Database.Driver != config.DriverPostgres {
		return true
	}

	res.Probed = true
	res.Ready = readiness.Wait(ctx, r.prober(), readiness.Target{
		Host: cfg.Database.Host,
		Port: cfg.Database.Port,
		DSN:  cfg.Database.URL(),
	}, readiness.Options{
		MaxRetries: cfg.Readiness.MaxRetries,
		Delay:      cfg.Readiness.Delay,
	}, logger)
	if res.Ready {
		return true
	}
	if cfg.Readiness.Mode == config.ReadinessAdvisory {
		logger.Warnw("database did not report ready; loading anyway", "readiness", cfg.Readiness.Mode)
		return true
	}
	return false
}

func (r *Runner) prober() readiness.Prober {
	if r.Prober != nil {
		return r.Prober
	}
	if r.Config.Readiness.Probe == config.ProbePing {
		return readiness.Ping{}
	}
	return readiness.PgIsReady{}
}

func (r *Runner) connect(cfg config.Database) (db.Store, error) {
	if r.Connect != nil {
		return r.Connect(cfg)
	}
	store, err := db.Connect(cfg, r.Config.BatchSize, r.logger())
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		r.Logger = zap.NewNop().Sugar()
	}
	return r.Logger
}
