package tournament

import (
	"context"
	"time"
)

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Tournament, error)
	ListActive(ctx context.Context) ([]Tournament, error)
	GetByID(ctx context.Context, id string) (Tournament, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Tournament, bool, error)
	Create(ctx context.Context, item Tournament) error
	Update(ctx context.Context, item Tournament) error
	SetLastFetched(ctx context.Context, id string, at time.Time) error
}
