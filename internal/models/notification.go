package models

const (
	// NotificationLogin уведомление о новом входе.
	NotificationLogin = "login"
	// NotificationSignup приветственное уведомление после регистрации.
	NotificationSignup = "signup"
)

// NotificationRequest запрос на отправку уведомления пользователю.
// Используется и как тело POST /api/send-notification, и как сообщение в очереди.
type NotificationRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	Phone  string `json:"phone,omitempty"`
}
