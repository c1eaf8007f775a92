// Worker deletes expired OTP challenges every OTP_SWEEP_INTERVAL.
// GRPC_ADDR is required by config but unused (e.g. set to :0).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"risk-adaptive-auth/internal/config"
	"risk-adaptive-auth/internal/db"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/mfa"
	mfarepo "risk-adaptive-auth/internal/mfa/repository"
)

type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DatabaseURL == "" {
		logger.Fatal("worker: DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("worker: shutting down")
		cancel()
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("worker: database", zap.Error(err))
	}
	defer conn.Close()

	verifier := mfa.NewVerifier(mfarepo.NewPostgresRepository(conn), cfg.OTPLifetime(), cfg.OTPMaxAttempts, nil)
	logger.Info("worker: sweeping OTP challenges", zap.Duration("interval", cfg.SweepInterval()))
	run(ctx, verifier, cfg.SweepInterval(), cfg.CollaboratorTimeout(), logger)
	logger.Info("worker: stopped")
}

func run(ctx context.Context, s sweeper, interval, timeout time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sweepOnce(ctx, s, timeout, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, s sweeper, timeout time.Duration, logger *zap.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	n, err := s.Sweep(sweepCtx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("worker: sweep failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		logger.Debug("worker: swept challenges", zap.Int64("deleted", n))
	}
}
