// Package readiness polls a PostgreSQL server until it accepts connections.
package readiness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// AcceptingConnections is what pg_isready prints once the server is up.
const AcceptingConnections = "accepting connections"

const (
	DefaultMaxRetries  = 5
	DefaultDelay       = 5 * time.Second
	defaultPgIsReady   = "pg_isready"
	defaultPingTimeout = 5 * time.Second
)

var ErrNotAccepting = errors.New("readiness: server is not accepting connections")

// Target identifies the server to probe. DSN is only used by probers that
// open a real connection.
type Target struct {
	Host string
	Port string
	DSN  string
}

type Prober interface {
	Probe(ctx context.Context, target Target) error
}

// PgIsReady shells out to the PostgreSQL client's pg_isready.
type PgIsReady struct {
	// Command defaults to pg_isready on PATH.
	Command string
}

func (p PgIsReady) Probe(ctx context.Context, target Target) error {
	command := p.Command
	if command == "" {
		command = defaultPgIsReady
	}
	args := []string{"-h", target.Host}
	if target.Port != "" {
		args = append(args, "-p", target.Port)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stdout.String() + " " + stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", command, err)
		}
		return fmt.Errorf("%s: %w: %s", command, err, msg)
	}
	if !strings.Contains(stdout.String(), AcceptingConnections) {
		return fmt.Errorf("%w: %s", ErrNotAccepting, strings.TrimSpace(stdout.String()))
	}
	return nil
}

// Ping opens a pgx connection and pings it. Useful where the client tools
// are not installed.
type Ping struct {
	Timeout time.Duration
}

func (p Ping) Probe(ctx context.Context, target Target) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, target.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

type Options struct {
	MaxRetries int
	Delay      time.Duration
}

// Wait probes target up to opts.MaxRetries times with a fixed delay between
// attempts. It returns true as soon as a probe succeeds and false once the
// attempts are used up or ctx is done.
func Wait(ctx context.Context, prober Prober, target Target, opts Options, logger *zap.SugaredLogger) bool {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Delay <= 0 {
		// go-retry rejects a zero constant backoff.
		opts.Delay = time.Nanosecond
	}

	backoff := retry.WithMaxRetries(uint64(opts.MaxRetries-1), retry.NewConstant(opts.Delay))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := prober.Probe(ctx, target); err != nil {
			logger.Warnw("error connecting to database",
				"host", target.Host,
				"attempt", fmt.Sprintf("%d/%d", attempt, opts.MaxRetries),
				"retry_in", opts.Delay,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Errorw("max retries reached, database is not ready",
			"host", target.Host,
			"attempts", attempt,
			"error", err,
		)
		return false
	}

	logger.Infow("database is accepting connections", "host", target.Host, "attempts", attempt)
	return true
}
