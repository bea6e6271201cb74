package http

import (
	"context"

	"housepulse/internal/services"
)

// ViewsService defines the dashboard operations the HTTP layer needs
type ViewsService interface {
	Snapshot(ctx context.Context) (*services.Snapshot, error)
	View(ctx context.Context, name string) (interface{}, *services.Snapshot, error)
	Reload(ctx context.Context) (*services.Snapshot, error)
}
