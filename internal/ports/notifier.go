package ports

import "context"

// Notification is a message pushed to a single owner after a committed action.
type Notification struct {
	Subject string
	Code    int
	Content map[string]interface{}
}

// NotifierPort delivers notifications. Delivery is best effort and never
// affects the committed ledger.
type NotifierPort interface {
	Notify(ctx context.Context, ownerID string, n Notification) error
}
