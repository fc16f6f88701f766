package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// PushService sends multicast push notifications through an FCM-style
// legacy HTTP endpoint.
type PushService struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
}

func NewPushService() *PushService {
	endpoint := os.Getenv("FCM_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://fcm.googleapis.com/fcm/send"
	}
	return &PushService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint:  endpoint,
		serverKey: os.Getenv("FCM_SERVER_KEY"),
	}
}

type multicastRequest struct {
	RegistrationIDs []string         `json:"registration_ids"`
	Notification    pushNotification `json:"notification"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type multicastResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error,omitempty"`
	} `json:"results"`
}

// Send delivers one message to every token. Per-token failures are counted,
// not raised; an error is returned only on total transport failure.
func (s *PushService) Send(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	if len(tokens) == 0 {
		return 0, 0, nil
	}

	payload := multicastRequest{
		RegistrationIDs: tokens,
		Notification:    pushNotification{Title: title, Body: body},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return 0, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, errors.New("push API returned non-OK status: " + resp.Status)
	}

	var apiResp multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, 0, err
	}

	return apiResp.Success, apiResp.Failure, nil
}
