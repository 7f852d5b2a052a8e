package email

import (
	"context"
	"log/slog"
)

// DevSender implements EmailSender for local development.
// It logs outbound emails through slog instead of delivering them, so the
// application can run without Postmark credentials.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a development email sender that logs instead of sending.
func NewDevSender(log *slog.Logger) EmailSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSender{log: log}
}

// SendEmail logs the email metadata and body at debug level.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.log.InfoContext(ctx, "dev email sender: message not delivered",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
	)
	d.log.DebugContext(ctx, "dev email body", slog.String("body_html", params.BodyHTML))
	return nil
}
