package item

import (
	"context"
	"time"
)

// Repository defines the storage interface for items.
type Repository interface {
	// ListEvents returns the live events dated on day.
	ListEvents(ctx context.Context, day time.Time) ([]Item, error)

	// ListTasks returns live project tasks dated on day plus recurring tasks
	// anchored on or before day. Callers expand recurrence.
	ListTasks(ctx context.Context, day time.Time) ([]Item, error)

	// GetItem retrieves an item by ID, including items in the trash.
	GetItem(ctx context.Context, id string) (*Item, error)

	// CreateItem inserts a new item. The ID must already be set.
	CreateItem(ctx context.Context, it *Item) error

	// UpdateItem rewrites an item's title, date and span in place.
	// No overlap check happens here; conflicts are decided by the caller.
	UpdateItem(ctx context.Context, it *Item) error

	// RescheduleItem moves an item to another day keeping its span.
	RescheduleItem(ctx context.Context, id string, day time.Time) error

	// DeleteItem moves an item to the trash.
	DeleteItem(ctx context.Context, id string) error

	// RestoreItem takes an item out of the trash.
	RestoreItem(ctx context.Context, id string) error

	// ListDeleted returns items in the trash, most recently deleted first.
	ListDeleted(ctx context.Context) ([]Item, error)

	// PurgeDeleted permanently removes items trashed before cutoff.
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases any resources held by the repository.
	Close() error
}
