package core

import (
	"context"
	"time"
)

// MeetingProvider creates the video meeting links attached to classes.
// Returned links are opaque: they are stored as is, never parsed.
type MeetingProvider interface {
	CreateSession(ctx context.Context, title string, start, end time.Time, description string) (string, error)
	UpdateSession(ctx context.Context, id, title string, start, end time.Time, description string) (string, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
}
