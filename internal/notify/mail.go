package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/securefms/securefms/internal/config"
	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/models"
)

// mailNotifier delivers OTP codes through an HTTP mail gateway (a
// Brevo-style transactional mail API): one JSON POST per message,
// authenticated with an API key header.
type mailNotifier struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	from     string
	logger   *logger.Logger
}

// NewMailNotifier constructs the production [Notifier] over the configured
// mail gateway.
func NewMailNotifier(cfg config.Notifier, logger *logger.Logger) Notifier {
	logger.Debug().Str("endpoint", cfg.Endpoint).Msg("creating mail notifier")
	return &mailNotifier{
		client:   resty.New().SetTimeout(10 * time.Second),
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		logger:   logger,
	}
}

// mailRequest is the gateway's send-message payload.
type mailRequest struct {
	Sender      mailAddress   `json:"sender"`
	To          []mailAddress `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (n *mailNotifier) SendOTP(ctx context.Context, msg OTPMessage) error {
	log := logger.FromContext(ctx)

	subject := "Your Secure FMS sign-in code"
	if msg.Purpose == models.PurposePasswordReset {
		subject = "Your Secure FMS password reset code"
	}

	body := mailRequest{
		Sender:  mailAddress{Email: n.from, Name: "Secure FMS"},
		To:      []mailAddress{{Email: msg.Email, Name: msg.Username}},
		Subject: subject,
		HTMLContent: fmt.Sprintf(
			"<p>Hello %s,</p><p>Use the code below:</p><h1>%s</h1><p>This code expires in %d minutes. If you didn't request it, ignore this email.</p>",
			msg.Username, msg.Code, int(msg.ExpiresIn.Minutes()),
		),
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("api-key", n.apiKey).
		SetBody(body).
		Post(n.endpoint)
	if err != nil {
		log.Err(err).Str("email", msg.Email).Msg("otp mail request failed")
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if resp.IsError() {
		log.Error().Str("email", msg.Email).Int("status", resp.StatusCode()).Msg("otp mail rejected by gateway")
		return fmt.Errorf("%w: gateway returned status %d", ErrDelivery, resp.StatusCode())
	}

	return nil
}
