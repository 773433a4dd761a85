package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"propertyetl/config"
	"propertyetl/readiness"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var envFile string
	var retries int
	var delay time.Duration
	var probe string

	rootCmd := &cobra.Command{
		Use:   "readiness",
		Short: "Wait until the configured PostgreSQL host accepts connections",
		Run: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Fatalf("loading %s: %v", envFile, err)
			}
			db := config.Database{
				Driver:   config.DriverPostgres,
				User:     os.Getenv(config.EnvUser),
				Password: os.Getenv(config.EnvPassword),
				Host:     os.Getenv(config.EnvHost),
				Port:     os.Getenv(config.EnvPort),
				Name:     os.Getenv(config.EnvDatabase),
			}
			if db.Host == "" {
				log.Fatalf("please set $%s", config.EnvHost)
			}

			var prober readiness.Prober
			switch config.ProbeKind(probe) {
			case config.ProbePgIsReady:
				prober = readiness.PgIsReady{}
			case config.ProbePing:
				prober = readiness.Ping{}
			default:
				log.Fatalf("unknown probe %q", probe)
			}

			l, err := zap.NewProduction()
			if err != nil {
				log.Fatalf("creating logger: %v", err)
			}
			logger := l.Sugar()
			defer func() { _ = logger.Sync() }()

			target := readiness.Target{Host: db.Host, Port: db.Port, DSN: db.URL()}
			if !readiness.Wait(cmd.Context(), prober, target, readiness.Options{MaxRetries: retries, Delay: delay}, logger) {
				_ = logger.Sync()
				os.Exit(1)
			}
		},
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Env file to load before reading the connection settings")
	rootCmd.Flags().IntVar(&retries, "max-retries", readiness.DefaultMaxRetries, "Attempts before giving up")
	rootCmd.Flags().DurationVar(&delay, "retry-delay", readiness.DefaultDelay, "Delay between attempts")
	rootCmd.Flags().StringVar(&probe, "probe", string(config.ProbePgIsReady), "Probe to use: pg_isready or ping")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
