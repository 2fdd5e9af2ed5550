package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/otp"
	"github.com/securefms/securefms/internal/utils"
	"github.com/securefms/securefms/models"
)

// otpIssuedMessage is the acknowledgement body for every challenge-issuing
// endpoint. The same message is sent whether or not the account exists, so
// responses cannot be used to probe for registered identifiers.
const otpIssuedMessage = "if the account exists, a verification code has been sent"

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, token, err := h.services.Auth.Register(ctx, req)
	if err != nil {
		h.writeError(w, r, err, "user registration failed")
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("user registered")
	utils.WriteJSON(w, models.SessionResponse{Token: token.SignedString, User: user.Summary()}, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.Auth.BeginLogin(ctx, req.LoginIdentifier(), req.Password)
	if err != nil {
		if h.writeChallengeError(w, r, err, "login challenge issue failed") {
			return
		}
		// Unknown or inactive identifier: same acknowledgement shape as
		// success, nothing issued.
		utils.WriteJSON(w, models.OTPIssuedResponse{Message: otpIssuedMessage}, http.StatusOK)
		return
	}

	utils.WriteJSON(w, models.OTPIssuedResponse{Message: otpIssuedMessage, ExpiresAt: result.ExpiresAt}, http.StatusOK)
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, token, err := h.services.Auth.VerifyLogin(ctx, req.Identifier, req.Code)
	if err != nil {
		var mismatch *otp.MismatchError
		if errors.As(err, &mismatch) {
			log.Info().Int("attempts_remaining", mismatch.Remaining).Msg("otp mismatch")
			utils.WriteJSON(w, models.OTPMismatchResponse{
				Message:           "invalid verification code",
				AttemptsRemaining: mismatch.Remaining,
			}, http.StatusUnauthorized)
			return
		}
		h.writeError(w, r, err, "otp verification failed")
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("user logged in")
	utils.WriteJSON(w, models.SessionResponse{Token: token.SignedString, User: user.Summary()}, http.StatusOK)
}

func (h *Handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.Auth.ResendOTP(ctx, req.Identifier, req.Purpose)
	if err != nil {
		if h.writeChallengeError(w, r, err, "otp resend failed") {
			return
		}
	}

	utils.WriteJSON(w, models.OTPIssuedResponse{Message: otpIssuedMessage, ExpiresAt: result.ExpiresAt}, http.StatusOK)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.Auth.BeginPasswordReset(ctx, req.Identifier)
	if err != nil {
		if h.writeChallengeError(w, r, err, "password reset challenge issue failed") {
			return
		}
		utils.WriteJSON(w, models.OTPIssuedResponse{Message: otpIssuedMessage}, http.StatusOK)
		return
	}

	utils.WriteJSON(w, models.OTPIssuedResponse{Message: otpIssuedMessage, ExpiresAt: result.ExpiresAt}, http.StatusOK)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.Auth.CompletePasswordReset(ctx, req.Identifier, req.Code, req.NewPassword); err != nil {
		var mismatch *otp.MismatchError
		if errors.As(err, &mismatch) {
			log.Info().Int("attempts_remaining", mismatch.Remaining).Msg("otp mismatch")
			utils.WriteJSON(w, models.OTPMismatchResponse{
				Message:           "invalid verification code",
				AttemptsRemaining: mismatch.Remaining,
			}, http.StatusUnauthorized)
			return
		}
		h.writeError(w, r, err, "password reset failed")
		return
	}

	utils.WriteJSON(w, models.MessageResponse{Message: "password has been reset"}, http.StatusOK)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := utils.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	utils.WriteJSON(w, principal.Summary(), http.StatusOK)
}

// writeChallengeError handles the failure modes shared by every
// challenge-issuing endpoint and reports whether a response was written.
// Identity-resolution failures are NOT written here: the caller answers
// those with the generic acknowledgement shape.
func (h *Handler) writeChallengeError(w http.ResponseWriter, r *http.Request, err error, msg string) bool {
	log := logger.FromRequest(r)

	var rateLimited *otp.RateLimitError
	if errors.As(err, &rateLimited) {
		log.Info().Dur("retry_after", rateLimited.RetryAfter).Msg("challenge issue rate limited")
		utils.WriteJSON(w, models.RateLimitedResponse{
			Message:           "a code was issued recently, wait before requesting another",
			RetryAfterSeconds: int64(rateLimited.RetryAfter.Seconds()) + 1,
		}, http.StatusTooManyRequests)
		return true
	}

	if errors.Is(err, otp.ErrIdentityNotFound) || errors.Is(err, otp.ErrIdentityInactive) {
		log.Info().Msg("challenge requested for unresolvable identifier")
		return false
	}

	h.writeError(w, r, err, msg)
	return true
}

// writeError maps err onto a status code and writes the opaque client
// message; the full error goes to the log only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFromError(err)
	logger.FromRequest(r).Err(err).Int("status", status).Msg(msg)
	http.Error(w, clientMessageFromError(err, status), status)
}
