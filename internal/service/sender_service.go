package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkhub/internal/db"
	"parkhub/internal/entities"
)

// SenderService delivers receipt and password-reset notifications. Every send
// is best effort: missing credentials or provider failures are logged and the
// request that triggered them carries on.
type SenderService struct {
}

func NewSenderService() *SenderService {
	return &SenderService{}
}

// SendPaymentReceipt emails the receipt to the paying user and, when a phone
// number is on file, sends a short SMS. Runs the sends asynchronously.
func (s *SenderService) SendPaymentReceipt(user *db.User, result entities.PaymentResult) {
	subject := fmt.Sprintf("Parking receipt for slot %s", result.SlotCode)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour payment has been confirmed.\n\n"+
			"Slot: %s\nVehicle: %s\nAmount: %d\n\n"+
			"Thank you for parking with us.",
		user.Username, result.SlotCode, result.VehicleNumber, result.Amount,
	)

	go func() {
		if err := sendEmail(user.Email, user.Username, subject, body); err != nil {
			log.Printf("receipt email for slot %s not sent: %v", result.SlotCode, err)
		}
	}()

	if user.Phone != "" {
		sms := fmt.Sprintf("Parking payment confirmed: slot %s, vehicle %s, amount %d.",
			result.SlotCode, result.VehicleNumber, result.Amount)
		go func() {
			if err := sendSMS(user.Phone, sms); err != nil {
				log.Printf("receipt SMS for slot %s not sent: %v", result.SlotCode, err)
			}
		}()
	}
}

// SendPasswordReset emails the reset link. Returns an error so the handler can
// fall back to showing the link when email is not configured.
func (s *SenderService) SendPasswordReset(user *db.User, link string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account.\n"+
			"Open the link below to choose a new password (valid for one hour):\n\n%s\n\n"+
			"If you did not request this, you can ignore this message.",
		user.Username, link,
	)
	return sendEmail(user.Email, user.Username, "Password reset", body)
}

func sendEmail(toEmail, toName, subject, plainText string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "ParkHub"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sending email via SendGrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Email sent to %s (subject: %s)", toEmail, subject)
	return nil
}

func sendSMS(toNumber, messageBody string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("Twilio credentials not configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("SMS destination %q is not E.164, the send may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending SMS via Twilio: %w", err)
	}
	log.Printf("SMS sent to %s", toNumber)
	return nil
}
