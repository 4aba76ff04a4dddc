// Package notify sends reservation lifecycle emails through SendGrid.
package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/example/room-reservations/internal/application"
)

// Config holds the SendGrid sender settings.
type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// EmailNotifier implements application.Notifier. Delivery is asynchronous
// and best-effort: a failed email never affects the reservation.
type EmailNotifier struct {
	client   *sendgrid.Client
	from     *mail.Email
	timezone *time.Location
	logger   *slog.Logger
}

var _ application.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier constructs the notifier. Times in the email body are
// rendered in the given zone.
func NewEmailNotifier(cfg Config, timezone *time.Location, logger *slog.Logger) *EmailNotifier {
	if timezone == nil {
		timezone = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	fromName := cfg.FromName
	if fromName == "" {
		fromName = "Reserva de Salas"
	}
	return &EmailNotifier{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     mail.NewEmail(fromName, cfg.FromEmail),
		timezone: timezone,
		logger:   logger,
	}
}

// ReservationConfirmed emails the owner that the booking was committed.
func (n *EmailNotifier) ReservationConfirmed(detail application.ReservationDetail) {
	subject := fmt.Sprintf("Reserva confirmada: %s", detail.Room.Name)
	body := fmt.Sprintf(
		"Hola %s,\n\nTu reserva de la sala %s fue confirmada.\n\nInicio: %s\nTérmino: %s\n\nSaludos.",
		detail.User.DisplayName,
		detail.Room.Name,
		n.formatTime(detail.Reservation.StartAt),
		n.formatTime(detail.Reservation.EndAt),
	)
	go n.send(detail, subject, body)
}

// ReservationCancelled emails the owner that the booking was cancelled.
func (n *EmailNotifier) ReservationCancelled(detail application.ReservationDetail) {
	subject := fmt.Sprintf("Reserva cancelada: %s", detail.Room.Name)
	body := fmt.Sprintf(
		"Hola %s,\n\nTu reserva de la sala %s para el %s fue cancelada.\n\nSaludos.",
		detail.User.DisplayName,
		detail.Room.Name,
		n.formatTime(detail.Reservation.StartAt),
	)
	go n.send(detail, subject, body)
}

func (n *EmailNotifier) send(detail application.ReservationDetail, subject, body string) {
	to := mail.NewEmail(detail.User.DisplayName, detail.User.Email)
	message := mail.NewSingleEmail(n.from, subject, to, body, "")

	response, err := n.client.Send(message)
	if err != nil {
		n.logger.Warn("failed to send email", "to", detail.User.Email, "subject", subject, "error", err)
		return
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		n.logger.Warn("sendgrid returned non-success status",
			"to", detail.User.Email, "subject", subject, "status", response.StatusCode)
		return
	}
	n.logger.Debug("email sent", "to", detail.User.Email, "subject", subject)
}

func (n *EmailNotifier) formatTime(t time.Time) string {
	return t.In(n.timezone).Format("02-01-2006 15:04")
}
