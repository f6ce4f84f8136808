package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/dentalbook/dentalbook-api/internal/config"
	"github.com/dentalbook/dentalbook-api/internal/models"
)

// NotificationService delivers appointment emails. Delivery is best-effort:
// failures are logged and never surfaced to the booking flow.
type NotificationService struct {
	dialer *gomail.Dialer
	from   string
	log    *logrus.Logger
}

func NewNotificationService(cfg *config.Config, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		log:    log,
	}
}

// SendBookingConfirmation emails the patient a confirmation link for the
// booking. The send runs in a goroutine so it never blocks or fails the
// request that triggered it.
func (s *NotificationService) SendBookingConfirmation(booking *models.Booking, user *models.User, dentist *models.Dentist, baseURL string) {
	if user.Email == "" {
		s.log.WithField("user", user.ID.Hex()).Warn("confirmation email skipped: user has no email address")
		return
	}

	subject, body := ComposeConfirmationEmail(booking, user, dentist, baseURL)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	go func() {
		if err := s.dialer.DialAndSend(m); err != nil {
			s.log.WithFields(logrus.Fields{
				"booking": booking.ID.Hex(),
				"to":      user.Email,
				"error":   err,
			}).Error("failed to send confirmation email")
			return
		}
		s.log.WithFields(logrus.Fields{
			"booking": booking.ID.Hex(),
			"to":      user.Email,
		}).Info("confirmation email sent")
	}()
}

// SendPasswordReset emails the user their password reset link. Like the
// confirmation email, delivery runs in a goroutine and never fails the
// request.
func (s *NotificationService) SendPasswordReset(user *models.User, token, baseURL string) {
	if user.Email == "" {
		s.log.WithField("user", user.ID.Hex()).Warn("reset email skipped: user has no email address")
		return
	}

	subject, body := ComposeResetEmail(user, token, baseURL)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	go func() {
		if err := s.dialer.DialAndSend(m); err != nil {
			s.log.WithFields(logrus.Fields{
				"user":  user.ID.Hex(),
				"to":    user.Email,
				"error": err,
			}).Error("failed to send reset email")
			return
		}
		s.log.WithFields(logrus.Fields{
			"user": user.ID.Hex(),
			"to":   user.Email,
		}).Info("reset email sent")
	}()
}

// ComposeResetEmail builds the subject and HTML body for a password reset.
func ComposeResetEmail(user *models.User, token, baseURL string) (subject, body string) {
	resetURL := fmt.Sprintf("%s/resetPassword/%s", baseURL, token)

	subject = "Reset Your DentalBook Password"
	body = fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e5e7eb; border-radius: 10px;">
      <div style="text-align: center; margin-bottom: 20px;">
        <h1 style="color: #4AA3BA; margin-bottom: 5px;">DentalBook</h1>
        <p style="color: #4b5563; margin-top: 0;">Password reset request</p>
      </div>

      <div style="background-color: #f9fafb; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
        <p>Hello %s,</p>
        <p>We received a request to reset your password. The link below is valid for 10 minutes:</p>
      </div>

      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #4AA3BA; color: white; padding: 12px 25px; text-decoration: none; border-radius: 50px; font-weight: bold; display: inline-block;">
          Reset Password
        </a>
      </div>

      <div style="text-align: center; color: #6b7280; font-size: 14px; margin-top: 30px;">
        <p>If you did not request a password reset, no action is needed.</p>
      </div>
    </div>`,
		user.Name, resetURL)

	return subject, body
}

// ComposeConfirmationEmail builds the subject and HTML body for an
// appointment confirmation request.
func ComposeConfirmationEmail(booking *models.Booking, user *models.User, dentist *models.Dentist, baseURL string) (subject, body string) {
	confirmationURL := fmt.Sprintf("%s/confirm/%s", baseURL, booking.ID.Hex())
	appointmentDate := booking.BookingDate.Format("Monday, January 2, 2006 at 3:04 PM")

	subject = "Please Confirm Your Dental Appointment"
	body = fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e5e7eb; border-radius: 10px;">
      <div style="text-align: center; margin-bottom: 20px;">
        <h1 style="color: #4AA3BA; margin-bottom: 5px;">DentalBook Appointment</h1>
        <p style="color: #4b5563; margin-top: 0;">Please confirm your dental appointment</p>
      </div>

      <div style="background-color: #f9fafb; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
        <p>Hello %s,</p>
        <p>You have an upcoming dental appointment with <strong>%s</strong>.</p>
        <p>Please confirm your attendance by clicking the button below:</p>
      </div>

      <div style="background-color: #f3f4f6; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
        <h3 style="margin-top: 0; color: #1f2937;">Appointment Details:</h3>
        <p><strong>Date &amp; Time:</strong> %s</p>
        <p><strong>Dentist:</strong> %s</p>
        <p><strong>Booking ID:</strong> %s</p>
      </div>

      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #4AA3BA; color: white; padding: 12px 25px; text-decoration: none; border-radius: 50px; font-weight: bold; display: inline-block;">
          Confirm Appointment
        </a>
      </div>

      <div style="text-align: center; color: #6b7280; font-size: 14px; margin-top: 30px;">
        <p>If you did not schedule this appointment, please disregard this email.</p>
        <p>For any questions or to reschedule, please contact us at:<br>095-000-0000 or dentistBook@gmail.com</p>
      </div>
    </div>`,
		user.Name, dentist.Name, appointmentDate, dentist.Name, booking.ID.Hex(), confirmationURL)

	return subject, body
}
