// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the host:port of the Redis instance backing rate limits and access revocation.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis AUTH password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// RedisDB selects the Redis logical database.
	RedisDB int `mapstructure:"REDIS_DB"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim of access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim of access tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "720h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// LoginMaxAttempts is the number of login attempts per email allowed inside LoginWindow.
	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	// LoginWindow is the throttle window (e.g. "5m").
	LoginWindow string `mapstructure:"LOGIN_WINDOW"`

	// OTPTTL is the lifetime of a step-up challenge (e.g. "10m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts bounds wrong guesses against one challenge; 0 disables the cap.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// OTPSweepInterval is how often the worker purges expired challenges.
	OTPSweepInterval string `mapstructure:"OTP_SWEEP_INTERVAL"`
	// OTPReturnToClient when true enables dev OTP mode: codes are kept in memory for the DevService.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// RiskEngine selects the step-up decision engine: "builtin" or "opa".
	RiskEngine string `mapstructure:"RISK_ENGINE"`
	// RiskThreshold is the score at or above which a login requires step-up.
	RiskThreshold int `mapstructure:"RISK_THRESHOLD"`
	// RiskNewDevicePoints is added when the device class was never seen for the account.
	RiskNewDevicePoints int `mapstructure:"RISK_NEW_DEVICE_POINTS"`
	// RiskNewIPPoints is added when the IP was never seen for the account.
	RiskNewIPPoints int `mapstructure:"RISK_NEW_IP_POINTS"`
	// RiskConcurrentDevicePoints is added when RiskConcurrentDeviceMin other sessions exist on the same device class.
	RiskConcurrentDevicePoints int `mapstructure:"RISK_CONCURRENT_DEVICE_POINTS"`
	RiskConcurrentDeviceMin    int `mapstructure:"RISK_CONCURRENT_DEVICE_MIN"`
	// RiskConcurrentWindow bounds how far back a session still counts as concurrent (e.g. "15m").
	RiskConcurrentWindow string `mapstructure:"RISK_CONCURRENT_WINDOW"`
	// RiskSessionCountPoints is added when the account already has RiskSessionCountMin successful sessions.
	RiskSessionCountPoints int `mapstructure:"RISK_SESSION_COUNT_POINTS"`
	RiskSessionCountMin    int `mapstructure:"RISK_SESSION_COUNT_MIN"`

	// SMTP settings for the email OTP channel. Email delivery is disabled when SMTPHost is empty.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPTLS      bool   `mapstructure:"SMTP_TLS"`

	// SMSLocalAPIKey is the API key for SMS Local. SMS delivery is disabled when empty.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// CallTimeout bounds calls to external collaborators such as notification dispatch.
	CallTimeout string `mapstructure:"CALL_TIMEOUT"`
	// OpTimeout bounds a whole Login, VerifyOTP, refresh or logout call, store and directory
	// round trips included.
	OpTimeout string `mapstructure:"OPERATION_TIMEOUT"`
	// TrustedProxies is a comma-separated list of IPs or CIDRs allowed to set x-forwarded-for.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on telemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "riskauth")
	v.SetDefault("JWT_AUDIENCE", "riskauth-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h") // 30d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_WINDOW", "5m")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_SWEEP_INTERVAL", "1m")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("RISK_ENGINE", "builtin")
	v.SetDefault("RISK_THRESHOLD", 50)
	v.SetDefault("RISK_NEW_DEVICE_POINTS", 40)
	v.SetDefault("RISK_NEW_IP_POINTS", 30)
	v.SetDefault("RISK_CONCURRENT_DEVICE_POINTS", 30)
	v.SetDefault("RISK_CONCURRENT_DEVICE_MIN", 2)
	v.SetDefault("RISK_CONCURRENT_WINDOW", "15m")
	v.SetDefault("RISK_SESSION_COUNT_POINTS", 40)
	v.SetDefault("RISK_SESSION_COUNT_MIN", 5)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@localhost")
	v.SetDefault("SMTP_TLS", true)
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://app.smslocal.in/api/smsapi")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CALL_TIMEOUT", "5s")
	v.SetDefault("OPERATION_TIMEOUT", "10s")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "riskauth")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.OTPReturnToClient && cfg.IsProduction() {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.RiskEngine = strings.ToLower(strings.TrimSpace(cfg.RiskEngine))
	if cfg.RiskEngine != "builtin" && cfg.RiskEngine != "opa" {
		return nil, errors.New("config: RISK_ENGINE must be builtin or opa")
	}
	if cfg.RiskThreshold <= 0 {
		return nil, errors.New("config: RISK_THRESHOLD must be positive")
	}
	if cfg.LoginMaxAttempts <= 0 {
		return nil, errors.New("config: LOGIN_MAX_ATTEMPTS must be positive")
	}
	if cfg.OTPMaxAttempts < 0 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must not be negative")
	}

	for _, p := range cfg.TrustedProxyList() {
		if !validProxy(p) {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
		}
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.RefreshTokenTTL, 720*time.Hour)
}

// LoginThrottleWindow parses LoginWindow. Returns 5m if unset or invalid.
func (c *Config) LoginThrottleWindow() time.Duration {
	return parseDuration(c.LoginWindow, 5*time.Minute)
}

// OTPLifetime parses OTPTTL. Returns 10m if unset or invalid.
func (c *Config) OTPLifetime() time.Duration {
	return parseDuration(c.OTPTTL, 10*time.Minute)
}

// SweepInterval parses OTPSweepInterval. Returns 1m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	return parseDuration(c.OTPSweepInterval, time.Minute)
}

// CollaboratorTimeout parses CallTimeout. Returns 5s if unset or invalid.
func (c *Config) CollaboratorTimeout() time.Duration {
	return parseDuration(c.CallTimeout, 5*time.Second)
}

// OperationTimeout parses OpTimeout. Returns 10s if unset or invalid.
func (c *Config) OperationTimeout() time.Duration {
	return parseDuration(c.OpTimeout, 10*time.Second)
}

// TrustedProxyList splits TrustedProxies on commas, dropping empty entries.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConcurrentWindow parses RiskConcurrentWindow. Returns the access token TTL if unset or invalid.
func (c *Config) ConcurrentWindow() time.Duration {
	return parseDuration(c.RiskConcurrentWindow, c.AccessTTL())
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
