package storage

import (
	"context"
	"time"
)

// Registry remembers which article URLs have already been notified.
type Registry interface {
	// CheckRegistered reports, per URI, whether it is registered. URIs missing
	// from the result count as unregistered.
	CheckRegistered(ctx context.Context, uris []string) (map[string]bool, error)
	// Register records uri. already is true if it was registered before this call.
	Register(ctx context.Context, uri string) (already bool, err error)
}

// Registration is the persisted form of one registered URI.
type Registration struct {
	URI          string    `json:"uri"`
	RegisteredAt time.Time `json:"registered_at"`
}

// cutoff returns the oldest registration time still considered live.
// ttlHours <= 0 keeps registrations forever.
func cutoff(now time.Time, ttlHours int) time.Time {
	if ttlHours <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(ttlHours) * time.Hour)
}
