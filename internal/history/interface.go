package history

import (
	"context"
	"time"
)

// Collector records fired notifications for later inspection.
type Collector interface {
	Record(ctx context.Context, entry *Entry) error
	Close() error
}

// Repository defines the interface for audit data storage.
type Repository interface {
	Record(entry *Entry) error
	Close() error
}

// Entry is one fired notification.
type Entry struct {
	Timestamp time.Time
	Title     string
	Message   string
	Urgency   string
	Stream    string
}
