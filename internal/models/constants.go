package models

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsActive reports whether a booking in status s still claims (or may claim) its item.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

const (
	// DefaultCallTimeout время ожидания ответа от внешних сервисов (оплата, уведомления)
	DefaultCallTimeout = 10 // секунд

	// NotificationQueueSize размер очереди уведомлений
	NotificationQueueSize = 1000

	// NotificationRateLimitRPS допустимое число уведомлений в секунду на пользователя
	NotificationRateLimitRPS = 5

	// NotificationRateLimitBurst запас для всплесков уведомлений
	NotificationRateLimitBurst = 10

	// FailoverRecoveryInterval через сколько секунд снова пробовать основной канал
	FailoverRecoveryInterval = 60

	// PaymentIDPrefix префикс идентификаторов тестового платежного шлюза
	PaymentIDPrefix = "payment_"
)
