package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"risk-adaptive-auth/internal/logging"
)

// SMTPConfig configures the email channel.
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

const otpSubject = "Your verification code"

var otpBody = template.Must(template.New("otp").Parse(`Hello{{if .Name}} {{.Name}}{{end}},

Your verification code is {{.Code}}. It expires at {{.ExpiresAt.UTC.Format "15:04 MST"}}.

If you did not try to sign in, change your password.
`))

// EmailDispatcher sends codes over SMTP.
type EmailDispatcher struct {
	config SMTPConfig
	client *mail.Client
	logger *zap.Logger
}

// NewEmailDispatcher builds an SMTP client for config. It does not connect.
func NewEmailDispatcher(config SMTPConfig, logger *zap.Logger) (*EmailDispatcher, error) {
	if config.Host == "" {
		return nil, ErrNotConfigured
	}
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30 * time.Second),
		mail.WithTLSConfig(&tls.Config{ServerName: config.Host, MinVersion: tls.VersionTLS12}),
	}
	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}
	if config.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: new client: %w", err)
	}
	return &EmailDispatcher{config: config, client: client, logger: logging.OrNop(logger)}, nil
}

// SendOTP mails the code to msg.Email.
func (e *EmailDispatcher) SendOTP(ctx context.Context, msg OTPMessage) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}
	m, err := e.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := e.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	e.logger.Info("otp email sent", zap.String("account_id", msg.AccountID), zap.String("host", e.config.Host))
	return nil
}

func (e *EmailDispatcher) buildMessage(msg OTPMessage) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := otpBody.Execute(&body, msg); err != nil {
		return nil, fmt.Errorf("email: render: %w", err)
	}
	m := mail.NewMsg()
	if err := m.From(e.config.From); err != nil {
		return nil, fmt.Errorf("email: from: %w", err)
	}
	if err := m.To(msg.Email); err != nil {
		return nil, fmt.Errorf("email: to: %w", err)
	}
	m.Subject(otpSubject)
	m.SetBodyString(mail.TypeTextPlain, body.String())
	return m, nil
}
