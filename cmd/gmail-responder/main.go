package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/joshsymonds/gmail-responder/internal/cortex"
	"github.com/joshsymonds/gmail-responder/internal/rate"
	"github.com/joshsymonds/gmail-responder/internal/responder"
	"github.com/joshsymonds/gmail-responder/internal/runtime"
	"github.com/joshsymonds/gmail-responder/internal/thehive"
)

type responderConfig struct {
	jobDir   string
	rps      int
	dryRun   bool
	logLevel string
}

func main() {
	cfg := parseFlags()
	logger, err := newLogger(cfg.logLevel)
	if err != nil {
		runtime.DefaultLogger().Error("gmail-responder failed", "error", err)
		os.Exit(1)
	}
	if err := run(cfg, logger.With("run", uuid.NewString())); err != nil {
		logger.Error("gmail-responder failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() responderConfig {
	rps := flag.Int("rps", 4, "max Gmail requests per second (0 disables pacing)")
	dryRun := flag.Bool("dry-run", false, "log only; skip filter changes")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	return responderConfig{
		jobDir:   flag.Arg(0),
		rps:      *rps,
		dryRun:   *dryRun,
		logLevel: *logLevel,
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	return runtime.NewLogger(lvl), nil
}

// run always leaves a Cortex envelope behind; the returned error only
// drives the exit code.
func run(cfg responderConfig, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	job, err := cortex.ReadJob(cfg.jobDir, os.Stdin)
	if err != nil {
		return fmt.Errorf("read job: %w", err)
	}

	rep, err := execute(ctx, cfg, job, logger)
	if err != nil {
		if writeErr := job.Error(err.Error()); writeErr != nil {
			return fmt.Errorf("write error envelope: %w (run error: %v)", writeErr, err)
		}
		return err
	}
	if err := job.Report(rep.Full(), rep.Operations()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("responder finished", "message", rep.Message, "filters", rep.Filters.Len())
	return nil
}

func execute(ctx context.Context, cfg responderConfig, job *cortex.Job, logger *slog.Logger) (responder.Report, error) {
	conf, err := responder.LoadConfig(job)
	if err != nil {
		return responder.Report{}, err
	}

	var limiter rate.Limiter
	if cfg.rps > 0 {
		limiter = rate.NewTokenBucket(cfg.rps)
	}

	var auth responder.Authenticator
	switch conf.AuthMode {
	case responder.AuthGmailctl:
		auth = runtime.Gmailctl{ConfigDir: conf.GmailctlDir, Limiter: limiter}
	default:
		auth = runtime.ServiceAccount{
			CredentialFile: conf.ServiceAccountFile,
			Scopes:         runtime.Scopes(),
			Limiter:        limiter,
		}
	}

	svc := responder.NewService(thehive.NewClient(conf.TheHiveURL, conf.TheHiveAPIKey), auth, logger)
	svc.DryRun = cfg.dryRun
	return svc.Run(ctx, conf.Service, responder.InputFromJob(job))
}
