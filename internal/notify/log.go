package notify

import (
	"context"

	"github.com/securefms/securefms/internal/logger"
)

// logNotifier is the development [Notifier]: it records that a code was
// issued without ever writing the code itself to the log.
type logNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier constructs the development notifier.
func NewLogNotifier(logger *logger.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) SendOTP(_ context.Context, msg OTPMessage) error {
	n.logger.Info().
		Str("email", msg.Email).
		Str("purpose", string(msg.Purpose)).
		Dur("expires_in", msg.ExpiresIn).
		Msg("otp issued (log notifier, code withheld)")
	return nil
}
