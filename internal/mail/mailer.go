// Package mail is the hand-off seam for outbound mail. Actual delivery is an
// external collaborator; the default implementation records the hand-off so
// development environments can complete the reset flow from the logs.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

type Sender interface {
	SendPasswordReset(ctx context.Context, email string, resetURL string) error
}

type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendPasswordReset(ctx context.Context, email string, resetURL string) error {
	s.log.Info().
		Str("to", email).
		Str("reset_url", resetURL).
		Msg("password reset mail handed off")
	return nil
}
