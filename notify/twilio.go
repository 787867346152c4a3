package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends attendance notifications through Twilio. When credentials
// are not configured it runs in mock mode: messages are logged and reported
// as sent, so a dev environment without Twilio behaves like production.
type SMSService struct {
	client     *twilio.RestClient
	fromNumber string
	enabled    bool
}

// NewSMSService builds the service from Twilio credentials. Any empty
// argument disables real delivery.
func NewSMSService(accountSID, authToken, fromNumber string) *SMSService {
	s := &SMSService{fromNumber: fromNumber}

	if accountSID != "" && authToken != "" && fromNumber != "" {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		s.enabled = true
		log.Println("Twilio SMS service initialized")
	} else {
		log.Println("Twilio not configured - SMS notifications run in mock mode")
	}

	return s
}

// Enabled reports whether real SMS delivery is configured.
func (s *SMSService) Enabled() bool {
	return s.enabled
}

// SendSMS delivers one message, or logs it in mock mode.
func (s *SMSService) SendSMS(ctx context.Context, to, body string) error {
	if !s.enabled {
		log.Printf("[SMS Mock] to=%s body=%q", to, body)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}

	return nil
}

// SendParentNotification tells a parent their child's attendance was marked.
func (s *SMSService) SendParentNotification(ctx context.Context, phone, studentName, classID string, at time.Time) error {
	body := fmt.Sprintf("TrustCampus Alert: %s marked attendance for %s at %s. Blockchain verified.",
		studentName, classID, at.Format("3:04:05 PM"))
	return s.SendSMS(ctx, phone, body)
}

// SendAttendanceConfirmation congratulates the student directly.
func (s *SMSService) SendAttendanceConfirmation(ctx context.Context, phone, studentName, classID string) error {
	body := fmt.Sprintf("TrustCampus: %s, your attendance for %s has been recorded on the blockchain!",
		studentName, classID)
	return s.SendSMS(ctx, phone, body)
}

// SendCertificateMinted announces a freshly minted certificate NFT.
func (s *SMSService) SendCertificateMinted(ctx context.Context, phone, studentName, certTitle string) error {
	body := fmt.Sprintf("TrustCampus: %s, your %q certificate has been minted as an NFT!",
		studentName, certTitle)
	return s.SendSMS(ctx, phone, body)
}

// SendStreakAchievement celebrates an attendance streak.
func (s *SMSService) SendStreakAchievement(ctx context.Context, phone, studentName string, streakDays int) error {
	body := fmt.Sprintf("TrustCampus: congratulations %s, you've hit a %d-day attendance streak!",
		studentName, streakDays)
	return s.SendSMS(ctx, phone, body)
}
