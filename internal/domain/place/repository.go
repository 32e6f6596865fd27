package place

import "context"

// Repository reads the place catalog.
type Repository interface {
	// FindByKey looks a place up by its normalized name or alias.
	FindByKey(ctx context.Context, key string) (*Place, error)

	// SearchByPrefix returns up to limit places whose key starts with prefix.
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]Place, error)
}
