package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"
)

// SMSService sends text messages through the SMSPortal bulkmessages API.
type SMSService struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	apiSecret  string
}

func NewSMSService() *SMSService {
	baseURL := os.Getenv("SMSP_BASE_URL")
	if baseURL == "" {
		baseURL = "https://rest.smsportal.com/v1"
	}
	return &SMSService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		clientID:  os.Getenv("SMSP_CLIENT_ID"),
		apiSecret: os.Getenv("SMSP_API_SECRET"),
	}
}

type bulkMessage struct {
	Content     string `json:"content"`
	Destination string `json:"destination"`
}

type bulkRequest struct {
	Messages []bulkMessage `json:"messages"`
}

// NormalizeNumber converts local numbers to international format (0… → +27…)
func NormalizeNumber(msisdn string) string {
	msisdn = strings.TrimSpace(msisdn)
	if strings.HasPrefix(msisdn, "0") {
		return "+27" + msisdn[1:]
	}
	return msisdn
}

// Send delivers one SMS to one destination
func (s *SMSService) Send(ctx context.Context, message, destination string) error {
	payload := bulkRequest{
		Messages: []bulkMessage{
			{Content: message, Destination: NormalizeNumber(destination)},
		},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/bulkmessages", bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(s.clientID, s.apiSecret)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("SMS API returned non-OK status: " + resp.Status)
	}

	return nil
}
