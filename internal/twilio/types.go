package twilio

import "fmt"

// MessageResponse ответ Twilio на создание сообщения.
type MessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	To           string `json:"to"`
	From         string `json:"from"`
	Body         string `json:"body"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// APIError ответ Twilio с кодом не из диапазона 2xx.
// Body содержит исходный текст ответа провайдера.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
	MoreInfo   string `json:"more_info"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("twilio: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("twilio: status %d: %s", e.StatusCode, e.Body)
}
