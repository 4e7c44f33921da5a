package reservations

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/models"
)

// Mailer sends reservation mails. All sends are best effort; callers log
// failures and move on.
type Mailer interface {
	SendReservationConfirmation(ctx context.Context, driver models.Driver, reservations []models.Reservation) error
	SendReservationReminder(ctx context.Context, driver models.Driver, reservation models.Reservation) error
}

// SendGridMailer sends mail through SendGrid, the same transport as the rest
// of the outbound mail in this service.
type SendGridMailer struct {
	apiKey string
	from   string
}

// NewSendGridMailer builds a mailer from the configured credentials.
func NewSendGridMailer(conf *config.Config) *SendGridMailer {
	return &SendGridMailer{apiKey: conf.SendgridAPIKey, from: conf.MailFrom}
}

// SendReservationConfirmation mails a driver the windows just reserved.
func (m *SendGridMailer) SendReservationConfirmation(_ context.Context, driver models.Driver, reservations []models.Reservation) error {
	var lines []string
	for _, r := range reservations {
		lines = append(lines, fmt.Sprintf("%s - %s",
			r.ReservedFrom.Format("2006-01-02 15:04"),
			r.ReservedTo.Format("2006-01-02 15:04")))
	}
	subject := "Reservation confirmed"
	body := fmt.Sprintf("Hei %s,\n\nYour reservation is confirmed:\n%s\n", driver.Name, strings.Join(lines, "\n"))
	return m.send(driver, subject, body)
}

// SendReservationReminder mails a driver about a reservation starting soon.
func (m *SendGridMailer) SendReservationReminder(_ context.Context, driver models.Driver, reservation models.Reservation) error {
	subject := "Your reservation starts soon"
	body := fmt.Sprintf("Hei %s,\n\nYour reserved vehicle is ready from %s.\n",
		driver.Name, reservation.ReservedFrom.Format("2006-01-02 15:04"))
	return m.send(driver, subject, body)
}

func (m *SendGridMailer) send(driver models.Driver, subject, plainText string) error {
	from := mail.NewEmail("Fleet Rental", m.from)
	to := mail.NewEmail(driver.Name, driver.Email)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")
	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid status %d", response.StatusCode)
	}
	return nil
}
