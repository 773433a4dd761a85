package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"propertyetl/config"
	"propertyetl/etl"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	v := viper.New()
	config.SetDefaults(v)
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "etl",
		Short:         "Build the property star schema from a CSV file and load it into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := etl.Run(ctx, cfg, logger)
			if err != nil {
				logger.Errorw("etl run failed", "error", err)
				return err
			}

			failed := res.Failed()
			for _, o := range failed {
				logger.Errorw("table not loaded", "table", o.Table, "error", o.Err)
			}
			if err := exitErr(res, cfg.AllowPartial); err != nil {
				return err
			}
			if len(failed) > 0 {
				logger.Warnw("partial load accepted", "failed", len(failed), "tables", len(res.Outcomes))
				return nil
			}
			logger.Infow("end of ETL run, data model created and loaded into database",
				"records", res.Records,
				"tables", len(res.Outcomes),
			)
			return nil
		},
	}

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Human-readable debug logging")
	registerFlags(rootCmd.Flags())
	if err := v.BindPFlags(rootCmd.Flags()); err != nil {
		log.Fatalf("binding flags: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

// exitErr turns failed table loads into the command's error. With
// allowPartial set a partial load exits cleanly.
func exitErr(res *etl.Result, allowPartial bool) error {
	failed := res.Failed()
	if len(failed) == 0 || allowPartial {
		return nil
	}
	return fmt.Errorf("%d of %d tables failed to load", len(failed), len(res.Outcomes))
}

func registerFlags(flags *pflag.FlagSet) {
	flags.String(config.KeyInput, config.DefaultInputPath, "Path to the input CSV file")
	flags.String(config.KeyOutputDir, config.DefaultOutputDir, "Directory for the output CSV files")
	flags.String(config.KeyEnvFile, config.DefaultEnvFile, "Env file with user, password, host, port and database (overrides the environment)")
	flags.String(config.KeyReadiness, string(config.ReadinessGate), "Readiness handling: gate, advisory or off")
	flags.String(config.KeyProbe, string(config.ProbePgIsReady), "Readiness probe: pg_isready or ping")
	flags.Int(config.KeyMaxRetries, config.DefaultMaxRetries, "Readiness attempts before giving up")
	flags.Duration(config.KeyRetryDelay, config.DefaultRetryDelay, "Delay between readiness attempts")
	flags.Bool(config.KeyBackup, false, "Back up existing output CSV files before overwriting them")
	flags.Int(config.KeyMaxBackups, config.DefaultMaxBackups, "Maximum number of backups to retain per output file")
	flags.Int(config.KeyBatchSize, config.DefaultBatchSize, "Rows per INSERT batch")
	flags.Bool(config.KeyAllowPartial, false, "Exit successfully even if some tables failed to load")
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
