// Package mailer delivers account emails. Only a logging transport exists; no SMTP relay is configured.
package mailer

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// LogMailer writes outgoing emails to the log instead of sending them.
type LogMailer struct {
	frontendURL string
	log         zerolog.Logger
}

func NewLogMailer(frontendURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log.With().Str("component", "mailer").Logger(),
	}
}

// ResetURL builds the frontend link carrying the reset token.
func (m *LogMailer) ResetURL(token string) string {
	return m.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, username, token string) error {
	m.log.Info().
		Str("to", email).
		Str("username", username).
		Str("reset_url", m.ResetURL(token)).
		Msg("password reset email")
	return nil
}
