package port

import (
	"context"

	"github.com/rl1809/meal-order/internal/core/domain"
)

type CatalogCache interface {
	// LoadCatalog returns the cached snapshot, or nil when nothing is cached
	LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error)

	// SaveCatalog overwrites the cached snapshot
	SaveCatalog(ctx context.Context, snapshot domain.CatalogSnapshot) error
}

type OrderCounter interface {
	// NextOrderNumber increments the persisted counter and returns the new value
	NextOrderNumber(ctx context.Context) (int64, error)
}

type ProfileStore interface {
	// LoadProfile returns the profile of owner, or nil when none was saved
	LoadProfile(ctx context.Context, owner string) (*domain.UserProfile, error)

	SaveProfile(ctx context.Context, owner string, profile domain.UserProfile) error
}

// LocalStore is the persisted client state shared by every session of a device.
type LocalStore interface {
	CatalogCache
	OrderCounter
	ProfileStore
}
