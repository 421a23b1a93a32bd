// Package twilio реализует клиент REST API Twilio для отправки SMS и WhatsApp-сообщений.
package twilio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 4 << 10

// Client клиент Twilio Messages API.
type Client struct {
	accountSID string
	authToken  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Twilio.
func NewClient(accountSID, authToken, apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, path string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.accountSID + ":" + c.authToken))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// SendMessage отправляет одно сообщение. Для ответа не из 2xx возвращается *APIError.
func (c *Client) SendMessage(ctx context.Context, to, from, body string) (*MessageResponse, error) {
	const op = "twilio.SendMessage"

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	req, err := c.newRequest(ctx, "/2010-04-01/Accounts/"+url.PathEscape(c.accountSID)+"/Messages.json", form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, apiErr)
		return nil, apiErr
	}

	var msg MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &msg, nil
}
