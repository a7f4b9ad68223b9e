package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPSender envia notificaciones a un gateway de push (estilo Expo) via HTTP.
type HTTPSender struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTPSender(apiURL, apiKey string) (*HTTPSender, error) {
	if strings.TrimSpace(apiURL) == "" {
		return nil, fmt.Errorf("push api url is required")
	}
	return &HTTPSender{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *HTTPSender) Send(ctx context.Context, userID string, n Notification) error {
	payload := struct {
		UserID string `json:"user_id"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}{
		UserID: userID,
		Title:  n.Title,
		Body:   n.Body,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/send", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push http error: status=%d", resp.StatusCode)
	}
	return nil
}
