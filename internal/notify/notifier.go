// Package notify delivers one-time passcodes to principals. Delivery is a
// collaborator of the OTP challenge manager: a failed delivery rolls the
// freshly stored challenge back, so no valid code can exist that was never
// sent.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/securefms/securefms/models"
)

// ErrDelivery marks every notifier failure. The detail is logged server-side
// and surfaced to callers opaquely.
var ErrDelivery = errors.New("otp delivery failed")

// OTPMessage carries everything a delivery channel needs to notify a
// principal of a fresh code.
type OTPMessage struct {
	Email     string
	Username  string
	Code      string
	Purpose   models.ChallengePurpose
	ExpiresIn time.Duration
}

// Notifier delivers OTP codes. Implementations must be safe for concurrent
// use and must treat the code as a secret: it goes to the recipient and
// nowhere else.
type Notifier interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
