package identity

import (
	"context"
	"log/slog"
	"time"
)

type VerificationNotification struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

type EmailVerificationNotifier interface {
	SendEmailVerification(ctx context.Context, notification VerificationNotification) error
}

// DevEmailVerificationNotifier logs the confirmation code instead of
// sending mail. Production deployments swap in a real mailer.
type DevEmailVerificationNotifier struct {
	logger *slog.Logger
}

func NewDevEmailVerificationNotifier(logger *slog.Logger) *DevEmailVerificationNotifier {
	return &DevEmailVerificationNotifier{logger: logger}
}

func (n *DevEmailVerificationNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	n.logger.InfoContext(ctx, "email verification code issued",
		"email", notification.Email,
		"code", notification.Code,
		"expires_at", notification.ExpiresAt,
	)
	return nil
}
