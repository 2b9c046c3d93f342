package session

import "context"

// Keys under which session state is persisted in a Repo
const (
	KeyAccessToken       = "accessToken"
	KeyRefreshToken      = "refreshToken"
	KeyReadNotifications = "read_notifications"
)

// Repo is the durable key-value storage behind a Store.
// Values survive process restarts; implementations must be safe for concurrent use.
type Repo interface {
	// Get returns the value stored under key and whether it was found
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
