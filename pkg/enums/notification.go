package enums

import "fmt"

// NotificationType classifies stored customer notifications.
type NotificationType string

const (
	NotificationOrderInvoice   NotificationType = "order_invoice"
	NotificationOrderCancelled NotificationType = "order_cancelled"
	NotificationOrderCompleted NotificationType = "order_completed"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderInvoice,
	NotificationOrderCancelled,
	NotificationOrderCompleted,
}

// String implements fmt.Stringer.
func (t NotificationType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known NotificationType.
func (t NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
