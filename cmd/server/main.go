package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"risk-adaptive-auth/internal/account"
	accountrepo "risk-adaptive-auth/internal/account/repository"
	"risk-adaptive-auth/internal/audit"
	auditrepo "risk-adaptive-auth/internal/audit/repository"
	"risk-adaptive-auth/internal/config"
	"risk-adaptive-auth/internal/db"
	"risk-adaptive-auth/internal/devotp"
	devotphandler "risk-adaptive-auth/internal/devotp/handler"
	healthhandler "risk-adaptive-auth/internal/health/handler"
	"risk-adaptive-auth/internal/identity/service"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/mfa"
	mfarepo "risk-adaptive-auth/internal/mfa/repository"
	"risk-adaptive-auth/internal/notification"
	"risk-adaptive-auth/internal/policy/engine"
	"risk-adaptive-auth/internal/ratelimit"
	"risk-adaptive-auth/internal/risk"
	"risk-adaptive-auth/internal/security"
	"risk-adaptive-auth/internal/server"
	"risk-adaptive-auth/internal/server/interceptors"
	"risk-adaptive-auth/internal/session"
	sessionrepo "risk-adaptive-auth/internal/session/repository"
	"risk-adaptive-auth/internal/telemetry"
	telemetryotel "risk-adaptive-auth/internal/telemetry/otel"
	"risk-adaptive-auth/internal/token"
	tokenrepo "risk-adaptive-auth/internal/token/repository"
)

const shutdownTimeout = 10 * time.Second

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

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatal("otel", zap.Error(err))
	}
	providers.SetGlobal()
	emitter := telemetryotel.NewEventEmitter(providers.LoggerProvider)
	metrics, err := telemetryotel.NewLoginMetrics(providers.MeterProvider)
	if err != nil {
		logger.Fatal("otel metrics", zap.Error(err))
	}

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("jwt keys", zap.Error(err))
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	accounts := account.NewDirectory(accountrepo.NewPostgresRepository(conn), security.NewHasher(cfg.BcryptCost))
	sessions := session.NewRegistry(sessionrepo.NewPostgresRepository(conn), nil)
	revocations := token.NewRedisRevocations(rdb)
	issuer := token.NewIssuer(token.Config{
		Repo:        tokenrepo.NewPostgresRepository(conn),
		Provider:    tokens,
		Accounts:    accounts,
		Revocations: revocations,
		RefreshTTL:  cfg.RefreshTTL(),
		Logger:      logger,
	})
	verifier := mfa.NewVerifier(mfarepo.NewPostgresRepository(conn), cfg.OTPLifetime(), cfg.OTPMaxAttempts, nil)

	evaluator, policy, err := buildEvaluator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("risk engine", zap.Error(err))
	}
	scorer := risk.NewEngine(sessions, evaluator, riskConfig(cfg), logger)

	notifier, devStore := buildNotifier(cfg, logger)

	auth := service.NewAuthService(service.Deps{
		Accounts:          accounts,
		Sessions:          sessions,
		Risk:              scorer,
		Tokens:            issuer,
		OTP:               verifier,
		Throttle:          ratelimit.New(rdb),
		Audit:             audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger),
		Notifier:          notifier,
		Observer:          metrics,
		Logger:            logger,
		MaxAttempts:       cfg.LoginMaxAttempts,
		ThrottleWindow:    cfg.LoginThrottleWindow(),
		DispatchTimeout:   cfg.CollaboratorTimeout(),
		OperationTimeout:  cfg.OperationTimeout(),
		ReturnOTPToClient: cfg.OTPReturnToClient,
	})

	deps := server.Deps{
		Auth:        auth,
		HealthDB:    conn,
		HealthCache: healthhandler.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		Logger:      logger,
	}
	if policy != nil {
		deps.HealthPolicy = policy
	}
	if devStore != nil {
		deps.DevOTPHandler = devotphandler.NewServer(devStore)
	}

	proxies, err := interceptors.ParseTrustedProxies(cfg.TrustedProxyList())
	if err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}
	defer lis.Close()

	s := server.NewGRPCServer(server.Options{
		Tokens:         tokens,
		Revocations:    issuer,
		Emitter:        emitter,
		TrustedProxies: proxies,
		Instrument:     cfg.OTLPEndpoint != "",
		Logger:         logger,
	})
	server.RegisterServices(s, deps)

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr), zap.String("risk_engine", cfg.RiskEngine))
		if err := s.Serve(lis); err != nil && err != grpc.ErrServerStopped {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gRPC server")
	s.GracefulStop()
	time.Sleep(telemetry.ShutdownDrainDuration)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("gRPC server stopped")
}

func riskConfig(cfg *config.Config) risk.Config {
	return risk.Config{
		Threshold:              cfg.RiskThreshold,
		NewDevicePoints:        cfg.RiskNewDevicePoints,
		NewIPPoints:            cfg.RiskNewIPPoints,
		ConcurrentDevicePoints: cfg.RiskConcurrentDevicePoints,
		ConcurrentDeviceMin:    cfg.RiskConcurrentDeviceMin,
		ConcurrentWindow:       cfg.ConcurrentWindow(),
		SessionCountPoints:     cfg.RiskSessionCountPoints,
		SessionCountMin:        cfg.RiskSessionCountMin,
	}
}

// buildEvaluator returns the step-up evaluator for RISK_ENGINE. The OPA evaluator is also
// returned as the readiness checker; the builtin one has nothing to check.
func buildEvaluator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (risk.Evaluator, *engine.OPAEvaluator, error) {
	if cfg.RiskEngine != "opa" {
		return risk.Builtin{}, nil, nil
	}
	opa, err := engine.NewOPAEvaluator(ctx, engine.DefaultPolicy, risk.Builtin{}, logger)
	if err != nil {
		return nil, nil, err
	}
	return opa, opa, nil
}

// buildNotifier fans out to every configured channel. When codes are returned to the client
// the dev store joins the fan-out so DevService can serve them.
func buildNotifier(cfg *config.Config, logger *zap.Logger) (notification.Dispatcher, *devotp.MemoryStore) {
	multi := notification.NewMulti(logger)
	if cfg.SMTPHost != "" {
		email, err := notification.NewEmailDispatcher(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			TLS:      cfg.SMTPTLS,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		if err != nil {
			logger.Fatal("smtp", zap.Error(err))
		}
		multi.Add("email", email)
	}
	if cfg.SMSLocalAPIKey != "" {
		multi.Add("sms", notification.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender))
	}
	var store *devotp.MemoryStore
	if cfg.OTPReturnToClient && !cfg.IsProduction() {
		store = devotp.NewMemoryStore()
		multi.Add("devotp", store)
	}
	if multi.Len() == 0 {
		logger.Warn("no OTP delivery channel configured; step-up codes will not be delivered")
	}
	return multi, store
}
