package ports

import "context"

// AccountPort updates the host-side profile of a commander.
type AccountPort interface {
	// UpdateProfile sets the username and display name shown to other players.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
