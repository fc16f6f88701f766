package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// MailService sends transactional mail through the SendGrid v3 API.
type MailService struct {
	httpClient *http.Client
	apiKey     string
	fromEmail  string
	fromName   string
}

func NewMailService() *MailService {
	return &MailService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:    os.Getenv("SENDGRID_API_KEY"),
		fromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		fromName:  os.Getenv("SENDGRID_FROM_NAME"),
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// Send delivers a plain-text email
func (s *MailService) Send(ctx context.Context, to, subject, body string) (bool, error) {
	payload := sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: to}}}},
		From:             emailAddress{Email: s.fromEmail, Name: s.fromName},
		Subject:          subject,
		Content:          []mailContent{{Type: "text/plain", Value: body}},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.sendgrid.com/v3/mail/send", bytes.NewBuffer(reqBody))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, errors.New("mail API returned non-OK status: " + resp.Status)
	}

	return true, nil
}

// SendVerificationCode emails an OTP code with its expiry window
func (s *MailService) SendVerificationCode(ctx context.Context, to, code string, expiresMinutes int) (bool, error) {
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, expiresMinutes)
	return s.Send(ctx, to, subject, body)
}
