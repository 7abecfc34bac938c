package nakama

import (
	"context"
	"fmt"

	"towerdefense/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaNotifierAdapter implements ports.NotifierPort with in-app notifications.
type NakamaNotifierAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaNotifierAdapter creates a new notifier adapter.
func NewNakamaNotifierAdapter(nk runtime.NakamaModule) *NakamaNotifierAdapter {
	return &NakamaNotifierAdapter{nk: nk}
}

// Notify sends a non-persistent notification from the system user.
func (a *NakamaNotifierAdapter) Notify(ctx context.Context, ownerID string, n ports.Notification) error {
	if err := a.nk.NotificationSend(ctx, ownerID, n.Subject, n.Content, n.Code, "", false); err != nil {
		return fmt.Errorf("failed to notify user %s: %w", ownerID, err)
	}
	return nil
}

var _ ports.NotifierPort = (*NakamaNotifierAdapter)(nil)
